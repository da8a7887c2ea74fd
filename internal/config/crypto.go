package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const encPrefix = "enc:"

// 默认加密口令, 可通过 PLPYDBAPI_KEY 环境变量覆盖
var defaultPassphrase = []byte("plpydbapi-config-key")

// 用于测试的函数
func setPassphrase(key []byte) (restore func()) {
	old := defaultPassphrase
	defaultPassphrase = key
	return func() {
		defaultPassphrase = old
	}
}

// deriveKey 通过 scrypt 从口令和盐派生 AES 密钥
func deriveKey(salt []byte) ([]byte, error) {
	return scrypt.Key(defaultPassphrase, salt, 1<<15, 8, 1, 32)
}

// EncryptPassword 加密密码, 结果带 enc: 前缀
func EncryptPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("密码不能为空")
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key, err := deriveKey(salt)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(password), nil)
	payload := append(append(salt, nonce...), sealed...)
	return encPrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// DecryptPassword 解密密码
func DecryptPassword(encrypted string) (string, error) {
	if !strings.HasPrefix(encrypted, encPrefix) {
		return "", fmt.Errorf("密文格式不正确")
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encrypted, encPrefix))
	if err != nil {
		return "", fmt.Errorf("解码密文失败: %w", err)
	}
	if len(payload) < 16 {
		return "", fmt.Errorf("密文太短")
	}

	salt, rest := payload[:16], payload[16:]
	key, err := deriveKey(salt)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", fmt.Errorf("密文太短")
	}

	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("解密失败: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted 检查密码是否已加密
func IsEncrypted(password string) bool {
	if !strings.HasPrefix(password, encPrefix) {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(password, encPrefix))
	return err == nil
}
