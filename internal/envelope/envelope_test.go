package envelope

import (
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/vocdoni/gofirma/receiptparser/internal/receipt"
	"github.com/vocdoni/gofirma/receiptparser/internal/receipt/receipttest"
)

func signedSample(t *testing.T) (*receipttest.Authority, []byte) {
	t.Helper()
	ca, err := receipttest.NewAuthority("Receipt Test CA")
	assert.NilError(t, err)
	signed, err := ca.Sign(receipttest.Sample().Payload())
	assert.NilError(t, err)
	return ca, signed
}

func TestOpenAndVerify(t *testing.T) {
	ca, signed := signedSample(t)

	env, err := Open(signed)
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(env.Content, receipttest.Sample().Payload()))
	assert.Check(t, is.DeepEqual(env.Raw, signed))
	assert.NilError(t, env.Verify(ca.Pool()))

	signer, err := env.Signer()
	assert.NilError(t, err)
	info := SignerSummary(signer)
	assert.Equal(t, info.CommonName, "Receipt Test CA")
	assert.Equal(t, info.Organization, "Receipt Fixtures")
	assert.Equal(t, len(info.Fingerprint), 64)
}

func TestOpenBase64(t *testing.T) {
	_, signed := signedSample(t)
	encoded := base64.StdEncoding.EncodeToString(signed) + "\n"

	env, err := Open([]byte(encoded))
	assert.NilError(t, err)
	assert.Check(t, is.DeepEqual(env.Raw, signed))
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open(nil)
	assert.Check(t, errors.Is(err, ErrEmpty))

	_, err = Open([]byte("%%% not a receipt"))
	assert.ErrorContains(t, err, "failed to decode base64 receipt")

	_, err = Open([]byte{0x30, 0x03, 0x02, 0x01, 0x01})
	assert.ErrorContains(t, err, "failed to parse PKCS#7")
}

func TestVerifyUntrustedRoot(t *testing.T) {
	_, signed := signedSample(t)
	other, err := receipttest.NewAuthority("Someone Else")
	assert.NilError(t, err)

	env, err := Open(signed)
	assert.NilError(t, err)
	assert.ErrorContains(t, env.Verify(other.Pool()), "signature verification failed")
}

func TestLoadRoots(t *testing.T) {
	ca, signed := signedSample(t)
	dir := t.TempDir()

	pemPath := filepath.Join(dir, "root.pem")
	assert.NilError(t, os.WriteFile(pemPath, ca.PEM(), 0o600))
	derPath := filepath.Join(dir, "root.cer")
	assert.NilError(t, os.WriteFile(derPath, ca.Cert.Raw, 0o600))
	badPath := filepath.Join(dir, "bad.txt")
	assert.NilError(t, os.WriteFile(badPath, []byte("nothing here"), 0o600))

	env, err := Open(signed)
	assert.NilError(t, err)
	for _, path := range []string{pemPath, derPath} {
		pool, err := LoadRoots(path)
		assert.NilError(t, err, path)
		assert.NilError(t, env.Verify(pool), path)
	}

	_, err = LoadRoots(badPath)
	assert.Check(t, errors.Is(err, ErrNoRootCerts))
	_, err = LoadRoots(filepath.Join(dir, "missing.pem"))
	assert.ErrorContains(t, err, "failed to read root certificate")
}

func TestValidateHash(t *testing.T) {
	device := uuid.MustParse("2b7c1f36-5d4e-4a8b-9c0d-1e2f3a4b5c6d")
	fx := receipttest.Sample()

	h := sha1.New()
	h.Write(device[:])
	h.Write(fx.OpaqueValue)
	h.Write(receipttest.UTF8(fx.BundleID))
	fx.SHA1Hash = h.Sum(nil)

	r, err := receipt.NewParser().Parse(fx.Encode())
	assert.NilError(t, err)
	assert.NilError(t, ValidateHash(r, device))
	assert.Check(t, errors.Is(ValidateHash(r, uuid.New()), ErrHashMismatch))
}
