package keywrap

import (
	"context"
	"fmt"

	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/cryptovault/internal/common"
)

// KMSWrapper wraps DEKs with a Cloud KMS crypto key. Every call is a remote
// round trip and nothing is cached locally, so each wrap/unwrap shows up in
// the KMS audit log.
type KMSWrapper struct {
	client  *kms.KeyManagementClient
	keyName string
}

// NewKMSWrapper builds a wrapper for the crypto key identified by the
// project/location/keyring/key tuple.
func NewKMSWrapper(client *kms.KeyManagementClient, project, location, keyRing, key string) *KMSWrapper {
	return &KMSWrapper{
		client: client,
		keyName: fmt.Sprintf("projects/%s/locations/%s/keyRings/%s/cryptoKeys/%s",
			project, location, keyRing, key),
	}
}

func (w *KMSWrapper) Wrap(ctx context.Context, dek []byte) ([]byte, error) {
	resp, err := w.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:      w.keyName,
		Plaintext: dek,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: kms encrypt: %v", common.ErrKeyServiceUnavailable, err)
	}
	return resp.Ciphertext, nil
}

func (w *KMSWrapper) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	resp, err := w.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:       w.keyName,
		Ciphertext: wrapped,
	})
	if err != nil {
		// KMS rejects ciphertext produced under a different crypto key
		// with an invalid-argument style response; everything else is a
		// service failure.
		switch status.Code(err) {
		case codes.InvalidArgument, codes.FailedPrecondition:
			return nil, fmt.Errorf("%w: %v", common.ErrUnwrap, err)
		default:
			return nil, fmt.Errorf("%w: kms decrypt: %v", common.ErrKeyServiceUnavailable, err)
		}
	}
	return resp.Plaintext, nil
}
