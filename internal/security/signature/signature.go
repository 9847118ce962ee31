// Package signature implementa el sobre firmado que viaja entre cliente
// y servidor durante los flujos de autenticación: un payload corto
// ("email|timestamp[|code]") cifrado con RSA-OAEP y codificado base64.
//
// El cifrado da confidencialidad del payload (el OTP nunca viaja en
// claro junto al challenge); la autenticidad la aporta el hecho de que
// solo el servidor posee la clave privada para abrir el sobre.
package signature

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrInvalidSignature indica que el sobre no pudo abrirse: base64
// inválido, ciphertext corrupto o cifrado con otra clave. Se retorna
// de forma opaca, sin distinguir la causa.
var ErrInvalidSignature = errors.New("signature: invalid signature")

// Signer cifra y descifra sobres con un par de claves RSA.
type Signer struct {
	pub  *rsa.PublicKey
	priv *rsa.PrivateKey
}

// New construye un Signer desde las claves en formato PEM.
func New(publicPEM, privatePEM []byte) (*Signer, error) {
	pub, err := parsePublicKey(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("signature: public key: %w", err)
	}
	priv, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("signature: private key: %w", err)
	}
	return &Signer{pub: pub, priv: priv}, nil
}

// Encrypt cifra plaintext con la clave pública y retorna base64 estándar.
func (s *Signer) Encrypt(plaintext string) (string, error) {
	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, s.pub, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("signature: encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt abre un sobre base64. Cualquier falla (base64 malformado,
// padding inválido, clave equivocada) colapsa en ErrInvalidSignature.
func (s *Signer) Decrypt(encoded string) (string, error) {
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidSignature
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, s.priv, ct, nil)
	if err != nil {
		return "", ErrInvalidSignature
	}
	return string(pt), nil
}

func parsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	// PKIX ("PUBLIC KEY") o PKCS#1 ("RSA PUBLIC KEY")
	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("not an RSA key")
		}
		return rsaKey, nil
	}
	return x509.ParsePKCS1PublicKey(block.Bytes)
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	// PKCS#8 ("PRIVATE KEY") o PKCS#1 ("RSA PRIVATE KEY")
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("not an RSA key")
		}
		return rsaKey, nil
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}
