package log

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	original := logrus.StandardLogger().Out
	logrus.SetOutput(&buf)
	logrus.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})
	logrus.SetLevel(logrus.DebugLevel)
	L = &logger{entry: logrus.NewEntry(logrus.StandardLogger())}

	t.Cleanup(func() {
		logrus.SetOutput(original)
		SetupTestLogger()
	})
	return &buf
}

func TestCorrelationID(t *testing.T) {
	ctx, id := WithCorrelationID(context.Background())

	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetCorrelationID(ctx))
	assert.Empty(t, GetCorrelationID(context.Background()))
}

func TestForContext_AddsCorrelationID(t *testing.T) {
	buf := captureOutput(t)
	ctx, id := WithCorrelationID(context.Background())

	ForContext(ctx).Info("ciclo iniciado")

	assert.Contains(t, buf.String(), "correlation_id="+id)
	assert.Contains(t, buf.String(), "ciclo iniciado")
}

func TestWithFields_Development(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	buf := captureOutput(t)

	L.WithFields(Fields{
		"window":     "today",
		"device_id":  "watch-1",
		"user_agent": "curl",
	}).Info("janela buscada")

	out := buf.String()
	assert.Contains(t, out, "window=today")
	assert.Contains(t, out, "device_id=watch-1")
	assert.NotContains(t, out, "user_agent")
}

func TestWithFields_Production(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	buf := captureOutput(t)

	L.WithField("user_agent", "curl").WithError(errors.New("falhou")).Warn("requisição")

	out := buf.String()
	assert.Contains(t, out, "user_agent=curl")
	assert.Contains(t, out, "error=falhou")
}

func TestSetup(t *testing.T) {
	t.Cleanup(SetupTestLogger)

	Setup("warn")
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	Setup("barulhento")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestForContext_AddsCycle(t *testing.T) {
	buf := captureOutput(t)
	ctx := WithCycleID(context.Background(), "01HV0000000000000000000000")

	ForContext(ctx).WithField("attempt", 2).Warn("nova tentativa")

	out := buf.String()
	assert.Contains(t, out, "cycle=01HV0000000000000000000000")
	assert.Contains(t, out, "attempt=2")
	assert.Empty(t, GetCycleID(context.Background()))
}
