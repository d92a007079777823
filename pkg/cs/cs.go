// Package cs stores table snapshots as objects in a Google Cloud Storage bucket.
package cs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/navikt/nada-tablesync/pkg/errs"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type Operations interface {
	WriteObject(ctx context.Context, name string, data []byte, attrs *Attributes) error
	GetObjects(ctx context.Context, q *Query) ([]*Object, error)
	GetObjectWithData(ctx context.Context, name string) (*ObjectWithData, error)
	DeleteObjects(ctx context.Context, q *Query) (int, error)
}

var _ Operations = &Client{}

type Client struct {
	client *storage.Client
	bucket string
}

type Object struct {
	Name    string
	Bucket  string
	Updated time.Time
	Attrs   Attributes
}

type ObjectWithData struct {
	*Object
	Data []byte
}

type Attributes struct {
	ContentType     string
	ContentEncoding string
	Size            int64
}

// Query selects objects by name prefix, an empty prefix matches everything.
type Query struct {
	Prefix string
}

func (c *Client) WriteObject(ctx context.Context, name string, data []byte, attrs *Attributes) error {
	const op errs.Op = "cs.WriteObject"

	w := c.client.Bucket(c.bucket).Object(name).NewWriter(ctx)

	if attrs != nil {
		w.ContentType = attrs.ContentType
		w.ContentEncoding = attrs.ContentEncoding
	}

	_, err := io.Copy(w, bytes.NewReader(data))
	if err != nil {
		_ = w.Close()

		return errs.E(errs.IO, op, errs.Parameter(name), fmt.Errorf("writing object: %w", err))
	}

	err = w.Close()
	if err != nil {
		return errs.E(op, errs.Parameter(name), c.translate(err))
	}

	return nil
}

func (c *Client) GetObjects(ctx context.Context, q *Query) ([]*Object, error) {
	const op errs.Op = "cs.GetObjects"

	objects := []*Object{}

	err := c.each(ctx, q, func(attrs *storage.ObjectAttrs) error {
		objects = append(objects, toObject(attrs))

		return nil
	})
	if err != nil {
		return nil, errs.E(op, err)
	}

	return objects, nil
}

func (c *Client) GetObjectWithData(ctx context.Context, name string) (*ObjectWithData, error) {
	const op errs.Op = "cs.GetObjectWithData"

	obj := c.client.Bucket(c.bucket).Object(name)

	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, errs.E(op, errs.Parameter(name), c.translate(err))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.E(errs.IO, op, errs.Parameter(name), fmt.Errorf("reading object: %w", err))
	}

	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, errs.E(op, errs.Parameter(name), c.translate(err))
	}

	return &ObjectWithData{
		Object: toObject(attrs),
		Data:   data,
	}, nil
}

func (c *Client) DeleteObjects(ctx context.Context, q *Query) (int, error) {
	const op errs.Op = "cs.DeleteObjects"

	n := 0

	err := c.each(ctx, q, func(attrs *storage.ObjectAttrs) error {
		err := c.client.Bucket(c.bucket).Object(attrs.Name).Delete(ctx)
		if err != nil {
			return errs.E(errs.IO, errs.Parameter(attrs.Name), fmt.Errorf("deleting object: %w", err))
		}

		n++

		return nil
	})
	if err != nil {
		return n, errs.E(op, err)
	}

	return n, nil
}

func (c *Client) each(ctx context.Context, q *Query, fn func(attrs *storage.ObjectAttrs) error) error {
	var query *storage.Query
	if q != nil {
		query = &storage.Query{
			Prefix: q.Prefix,
		}
	}

	it := c.client.Bucket(c.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}

		if err != nil {
			return c.translate(err)
		}

		err = fn(attrs)
		if err != nil {
			return err
		}
	}
}

func (c *Client) translate(err error) error {
	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		return errs.E(errs.NotExist, errs.Str("object does not exist"))
	case errors.Is(err, storage.ErrBucketNotExist):
		return errs.E(errs.NotExist, errs.Parameter(c.bucket), errs.Str("bucket does not exist"))
	default:
		return errs.E(errs.IO, err)
	}
}

func toObject(attrs *storage.ObjectAttrs) *Object {
	return &Object{
		Name:    attrs.Name,
		Bucket:  attrs.Bucket,
		Updated: attrs.Updated,
		Attrs: Attributes{
			ContentType:     attrs.ContentType,
			ContentEncoding: attrs.ContentEncoding,
			Size:            attrs.Size,
		},
	}
}

// New creates a client for bucket, endpoint points the client at an emulator
// when set.
func New(ctx context.Context, bucket, endpoint string) (*Client, error) {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &Client{
		client: client,
		bucket: bucket,
	}, nil
}

func NewFromClient(bucket string, client *storage.Client) *Client {
	return &Client{
		client: client,
		bucket: bucket,
	}
}
