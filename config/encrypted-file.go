package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"sync"
)

var (
	fileEncrKey = []byte("vp;8vJbo$7aPXD^34zxY(LUo]d4EodCP")
)

// EncryptedFile stores bytes AES-GCM encrypted and base64 encoded.
type EncryptedFile struct {
	Dirname  string
	FileName string
	FullPath string
	mu       sync.Mutex
}

func NewEncryptedFile(dirName string, filename string) *EncryptedFile {
	return &EncryptedFile{Dirname: dirName, FileName: filename, FullPath: path.Join(dirName, filename)}
}

// Set encrypts text and replaces the file contents, creating the directory if required.
func (f *EncryptedFile) Set(text []byte) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := aes.NewCipher(fileEncrKey)
	if err != nil {
		return err
	}
	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	sealedBytes := gcm.Seal(nonce, nonce, text, nil) // nonce is prepended.
	b64 := base64.StdEncoding.EncodeToString(sealedBytes)
	if err := makeDir(f.Dirname); err != nil {
		return err
	}
	return ioutil.WriteFile(f.FullPath, []byte(b64), 0600)
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}

// Get returns the decrypted file contents or FileNotFoundError.
func (f *EncryptedFile) Get() (text []byte, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !fileExists(f.FullPath) {
		return nil, FileNotFoundError{f.FullPath}
	}
	b64, err := ioutil.ReadFile(f.FullPath)
	if err != nil {
		return nil, err
	}
	cipherText, err := base64.StdEncoding.DecodeString(string(b64))
	if err != nil {
		return nil, err
	}
	return Decrypt(cipherText, fileEncrKey)
}

func Decrypt(text []byte, key []byte) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(text) < nonceSize {
		return nil, fmt.Errorf("encrypted text is too short")
	}
	nonce, cipherText := text[:nonceSize], text[nonceSize:]
	b, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, err
	}
	return b, nil
}
