package pii

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"math"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"leadrouter_backend/internal/appErrors"
)

// Redacted возвращается вместо открытого текста при сбое расшифровки.
// Сырой шифротекст никогда не показывается человеку.
const Redacted = "[данные недоступны]"

const (
	keyIterations = 100_000
	keyLen        = 32
)

// Соль фиксированная: ключ выводится один раз на процесс, ротации нет.
var keySalt = []byte("leadrouter.pii.v1")

// Codec - симметричное шифрование PII-полей. Ключ выводится из секрета
// при старте процесса и живет в инстансе кодека.
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(secret string) (*Codec, error) {
	// Пустой секрет - это реальные данные под предсказуемым ключом
	if secret == "" {
		return nil, errors.New("pii: secret is not configured")
	}
	key := pbkdf2.Key([]byte(secret), keySalt, keyIterations, keyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Encrypt возвращает самодостаточный токен: nonce + шифротекст, base64url.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt разбирает токен Encrypt. При любом сбое возвращает Redacted
// и типизированную ошибку ErrDecryptionFailed.
func (c *Codec) Decrypt(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Redacted, appErrors.ErrDecryptionFailed.WithError(err)
	}
	if len(raw) < c.aead.NonceSize() {
		return Redacted, appErrors.ErrDecryptionFailed
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return Redacted, appErrors.ErrDecryptionFailed.WithError(err)
	}
	return string(plain), nil
}

// Mask заменяет сплошной, центрированный участок цифр звездочками.
// Доля замаскированных цифр пропорциональна percent (0..1); нецифровые
// символы форматирования остаются на своих местах.
func Mask(phone string, percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}

	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits == 0 {
		return phone
	}

	masked := int(math.Round(float64(digits) * percent))
	if masked == 0 {
		return phone
	}
	start := (digits - masked) / 2

	var b strings.Builder
	b.Grow(len(phone))
	idx := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			if idx >= start && idx < start+masked {
				b.WriteRune('*')
			} else {
				b.WriteRune(r)
			}
			idx++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
