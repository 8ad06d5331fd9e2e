package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archiver preserves raw provider payloads that could not be normalized, so
// malformed telemetry can be diagnosed after the fact. Every operation is
// best-effort: failures are logged and never block the refresh path.
type Archiver struct {
	client Client
	cfg    Config
	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates an archiver over the given client.
func New(client Client, cfg Config, logg *zap.Logger) *Archiver {
	return &Archiver{
		client: client,
		cfg:    cfg,
		logger: logg,
		now:    time.Now,
	}
}

// EnsureBucket creates the archive bucket if it does not exist yet.
// Called once at startup.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("checking archive bucket %q: %w", a.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.cfg.Bucket, minio.MakeBucketOptions{Region: a.cfg.Region}); err != nil {
		return fmt.Errorf("creating archive bucket %q: %w", a.cfg.Bucket, err)
	}
	return nil
}

// StoreRaw writes one raw payload under <prefix>/<device>/<unix-nano>.json.
// It implements telemetry.RawSink.
func (a *Archiver) StoreRaw(ctx context.Context, deviceID string, payload []byte) {
	name := a.objectName(deviceID)

	_, err := a.client.PutObject(ctx, a.cfg.Bucket, name,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		a.logger.Warn("Failed to archive raw telemetry payload",
			zap.String("device_id", deviceID),
			zap.String("object", name),
			zap.Error(err),
		)
		return
	}

	a.logger.Info("Archived raw telemetry payload",
		zap.String("device_id", deviceID),
		zap.String("object", name),
	)
}

func (a *Archiver) objectName(deviceID string) string {
	prefix := strings.TrimSuffix(a.cfg.Prefix, "/")
	if deviceID == "" {
		deviceID = "unknown"
	}
	return fmt.Sprintf("%s/%s/%d.json", prefix, deviceID, a.now().UnixNano())
}
