package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/nikhilbhutani/genservices/internal/config"
)

// NATS stores objects in a JetStream object store bucket.
type NATS struct {
	conn   *nats.Conn
	bucket string
	store  nats.ObjectStore
}

// NewNATS connects and binds the bucket, creating it on first use.
func NewNATS(cfg config.NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required (set NATS_URL)")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("voice-api"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	store, err := bindObjectStore(js, cfg.Bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &NATS{conn: conn, bucket: cfg.Bucket, store: store}, nil
}

func bindObjectStore(js nats.JetStreamContext, bucket string) (nats.ObjectStore, error) {
	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "Generated speech audio.",
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, fmt.Errorf("create object store %q: %w", bucket, err)
	}

	store, err = js.ObjectStore(bucket)
	if err != nil {
		return nil, fmt.Errorf("bind object store %q: %w", bucket, err)
	}
	return store, nil
}

func (n *NATS) Name() string { return "nats" }

func (n *NATS) Save(ctx context.Context, data []byte, filename, contentType string) (*Result, error) {
	if err := checkFilename(filename); err != nil {
		return nil, err
	}

	_, err := n.store.Put(&nats.ObjectMeta{
		Name:    filename,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}, bytes.NewReader(data), nats.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("put %q to bucket %q: %w", filename, n.bucket, err)
	}

	res := &Result{
		Location:    fmt.Sprintf("nats://%s/%s", n.bucket, filename),
		ContentType: contentType,
		Backend:     n.Name(),
	}
	logSaved(res, len(data))
	return res, nil
}

// Close drains the connection.
func (n *NATS) Close() error {
	return n.conn.Drain()
}
