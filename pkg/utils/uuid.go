package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID gera um id alfanumérico curto com size caracteres
func GenerateID(size int) (string, error) {
	return gonanoid.Generate(characters, size)
}
