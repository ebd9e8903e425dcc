// Package licensefile produce y verifica el archivo de licencia offline: un XML con la
// licencia y una firma XMLDSig envolvente (RSA-SHA256, C14N inclusivo).
package licensefile

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/Licencias-api/internal/application/license"
)

// Namespaces y algoritmos XMLDSig.
const (
	NamespaceLicense   = "urn:licencias:license:1"
	NamespaceDS        = "http://www.w3.org/2000/09/xmldsig#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

const timeLayout = time.RFC3339

// ErrInvalidSignature el archivo fue alterado o no lo firmó este certificado.
var ErrInvalidSignature = errors.New("licensefile: firma inválida")

var _ license.FileSigner = (*Signer)(nil)

// Signer firma archivos de licencia con un certificado RSA.
type Signer struct {
	key  *rsa.PrivateKey
	cert *x509.Certificate
}

// NewSigner valida que el certificado traiga llave privada RSA.
func NewSigner(cert tls.Certificate) (*Signer, error) {
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("licensefile: el certificado debe incluir llave privada RSA")
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("licensefile: certificado vacío")
	}
	x509Cert := cert.Leaf
	if x509Cert == nil {
		var err error
		x509Cert, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("licensefile: parsear certificado: %w", err)
		}
	}
	return &Signer{key: priv, cert: x509Cert}, nil
}

// Certificate certificado con el que firma.
func (s *Signer) Certificate() *x509.Certificate { return s.cert }

// SignLicense arma el XML de la licencia y le agrega ds:Signature como último hijo de la raíz.
func (s *Signer) SignLicense(doc license.Document) ([]byte, error) {
	if doc.License == nil {
		return nil, fmt.Errorf("licensefile: documento sin licencia")
	}
	payload := buildPayload(doc)
	payloadBytes, err := payload.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("licensefile: serializar licencia: %w", err)
	}

	// 1) Digest del documento canonicalizado (la firma aún no existe: transformada enveloped)
	canonicalDoc, err := canonicalizeXML(payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("licensefile: canonicalizar licencia: %w", err)
	}
	docDigest := sha256.Sum256(canonicalDoc)

	// 2) SignedInfo canonicalizado y firmado con RSA-SHA256
	signedInfoXML := buildSignedInfo(base64.StdEncoding.EncodeToString(docDigest[:]))
	canonicalSignedInfo, err := canonicalizeXML([]byte(signedInfoXML))
	if err != nil {
		return nil, fmt.Errorf("licensefile: canonicalizar SignedInfo: %w", err)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, s.key, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("licensefile: firmar SignedInfo: %w", err)
	}

	// 3) ds:Signature con KeyInfo
	signatureXML := buildSignature(
		signedInfoXML,
		base64.StdEncoding.EncodeToString(signatureValue),
		base64.StdEncoding.EncodeToString(s.cert.Raw),
	)
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("licensefile: parsear Signature: %w", err)
	}
	payload.Root().AddChild(sigDoc.Root())

	var out bytes.Buffer
	out.WriteString(xml.Header)
	if _, err := payload.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("licensefile: serializar archivo: %w", err)
	}
	return out.Bytes(), nil
}

// Verify comprueba la firma del archivo contra el certificado del Signer.
// Devuelve ErrInvalidSignature si el contenido o la firma no coinciden.
func (s *Signer) Verify(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("licensefile: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("licensefile: documento sin raíz")
	}
	sig := root.SelectElement("ds:Signature")
	if sig == nil {
		return fmt.Errorf("%w: falta ds:Signature", ErrInvalidSignature)
	}
	signedInfo := sig.SelectElement("ds:SignedInfo")
	sigValue := sig.SelectElement("ds:SignatureValue")
	if signedInfo == nil || sigValue == nil {
		return fmt.Errorf("%w: firma incompleta", ErrInvalidSignature)
	}
	digestEl := signedInfo.FindElement("./ds:Reference/ds:DigestValue")
	if digestEl == nil {
		return fmt.Errorf("%w: falta DigestValue", ErrInvalidSignature)
	}

	// SignedInfo: se canonicaliza aislado, con su propia declaración de namespace.
	siDoc := etree.NewDocument()
	siDoc.SetRoot(signedInfo.Copy())
	siBytes, err := siDoc.WriteToBytes()
	if err != nil {
		return err
	}
	canonicalSignedInfo, err := canonicalizeXML(siBytes)
	if err != nil {
		return fmt.Errorf("licensefile: canonicalizar SignedInfo: %w", err)
	}
	rawSig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(sigValue.Text()))
	if err != nil {
		return fmt.Errorf("%w: SignatureValue no es base64", ErrInvalidSignature)
	}
	pub, ok := s.cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("licensefile: el certificado no tiene llave pública RSA")
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, signHash[:], rawSig); err != nil {
		return ErrInvalidSignature
	}

	// Contenido: raíz sin la firma (transformada enveloped), sin la declaración XML.
	root.RemoveChild(sig)
	payload := etree.NewDocument()
	payload.SetRoot(root.Copy())
	payloadBytes, err := payload.WriteToBytes()
	if err != nil {
		return err
	}
	canonicalDoc, err := canonicalizeXML(payloadBytes)
	if err != nil {
		return fmt.Errorf("licensefile: canonicalizar licencia: %w", err)
	}
	docDigest := sha256.Sum256(canonicalDoc)
	expected := base64.StdEncoding.EncodeToString(docDigest[:])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(digestEl.Text()))) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

func buildPayload(doc license.Document) *etree.Document {
	l := doc.License
	d := etree.NewDocument()
	root := d.CreateElement("License")
	root.CreateAttr("xmlns", NamespaceLicense)
	root.CreateAttr("Id", "license-"+l.ID)

	add := func(parent *etree.Element, tag, value string) {
		if value == "" {
			return
		}
		parent.CreateElement(tag).SetText(value)
	}

	add(root, "ID", l.ID)
	add(root, "ActivationKey", l.ActivationKey)
	if l.ComputerKey != nil {
		add(root, "ComputerKey", *l.ComputerKey)
	}
	if l.DeviceID != nil {
		add(root, "DeviceID", *l.DeviceID)
	}
	add(root, "LicenseType", l.LicenseType)
	add(root, "Status", doc.EffectiveStatus)
	if l.ActivatedAt != nil {
		add(root, "ActivatedAt", l.ActivatedAt.UTC().Format(timeLayout))
	}
	if l.ExpiresAt != nil {
		add(root, "ExpiresAt", l.ExpiresAt.UTC().Format(timeLayout))
	}
	if p := doc.Product; p != nil {
		pe := root.CreateElement("Product")
		pe.CreateAttr("id", p.ID)
		add(pe, "Name", p.Name)
		add(pe, "Version", p.Version)
		add(pe, "MaxUsers", fmt.Sprint(p.MaxUsers))
		add(pe, "MaxDevices", fmt.Sprint(p.MaxDevices))
	}
	if c := doc.Client; c != nil {
		ce := root.CreateElement("Client")
		ce.CreateAttr("id", c.ID)
		add(ce, "Name", c.Name)
		add(ce, "NIT", c.NIT)
	}
	add(root, "Issuer", doc.Issuer)
	add(root, "IssuedAt", doc.IssuedAt.UTC().Format(timeLayout))
	return d
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(docDigestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<ds:Reference URI="">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + docDigestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildSignature(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NamespaceDS + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}
