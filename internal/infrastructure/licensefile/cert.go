// Carga del material de firma desde .p12 (PKCS#12) o par PEM.

package licensefile

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// LoadCertificate elige el formato por la extensión de certPath: .p12/.pfx usa password,
// cualquier otra se trata como PEM (keyPath vacío = certificado y llave en el mismo archivo).
func LoadCertificate(certPath, keyPath, password string) (tls.Certificate, error) {
	if certPath == "" {
		return tls.Certificate{}, fmt.Errorf("licensefile: ruta del certificado vacía")
	}
	switch strings.ToLower(filepath.Ext(certPath)) {
	case ".p12", ".pfx":
		return LoadFromP12(certPath, password)
	default:
		return LoadFromPEM(certPath, keyPath)
	}
}

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve solo el certificado hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM carga certificado y llave desde archivos PEM (separados o combinados).
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	return cert, nil
}
