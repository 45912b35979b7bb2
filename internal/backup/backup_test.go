package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding-rsvp/internal/domain"
	"github.com/AlexTLDR/wedding-rsvp/internal/logger"
	"github.com/AlexTLDR/wedding-rsvp/internal/storage/kv"
)

type object struct {
	body     []byte
	modified time.Time
}

// fakeS3 keeps objects in memory.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string]object
	now       time.Time
	failKey   string
	deletions []string
}

func newFakeS3(now time.Time) *fakeS3 {
	return &fakeS3{objects: make(map[string]object), now: now}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = object{body: body, modified: f.now}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			LastModified: aws.Time(f.objects[k].modified),
		})
	}
	return out, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	if key == f.failKey {
		return nil, errors.New("access denied")
	}
	delete(f.objects, key)
	f.deletions = append(f.deletions, key)
	return &s3.DeleteObjectOutput{}, nil
}

var now = time.Date(2025, time.February, 20, 3, 0, 0, 0, time.UTC)

func TestTakeAndUpload(t *testing.T) {
	ctx := context.Background()
	db, err := kv.OpenBadger("", nil)
	require.NoError(t, err)
	store := kv.New(db, logger.Discard())
	defer store.Close()

	require.NoError(t, store.CreateInvite(ctx, &domain.Invite{ID: "inv-1", Events: domain.NewEventSet(domain.Wedding), CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.CreateResponse(ctx, &domain.Response{ID: "rsp-1", Name: "Asha", InviteID: "inv-1", Events: domain.NewEventSet(domain.Wedding), CreatedAt: now, UpdatedAt: now}))

	snap, err := Take(ctx, store, now)
	require.NoError(t, err)
	require.Len(t, snap.Invites, 1)
	require.Len(t, snap.Responses, 1)
	assert.Nil(t, snap.Invites[0].Response)

	client := newFakeS3(now)
	key, err := NewUploader(client, "bucket", logger.Discard()).Upload(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, "wedding-rsvp/snapshots/rsvp-20250220-030000.json", key)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(client.objects[key].body, &decoded))
	assert.Equal(t, 1, decoded.Version)
	assert.Equal(t, "Asha", decoded.Responses[0].Name)
	assert.True(t, decoded.TakenAt.Equal(now))
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3(now)
	client.objects[KeyPrefix+"old.json"] = object{modified: now.Add(-40 * 24 * time.Hour)}
	client.objects[KeyPrefix+"locked.json"] = object{modified: now.Add(-35 * 24 * time.Hour)}
	client.objects[KeyPrefix+"fresh.json"] = object{modified: now.Add(-time.Hour)}
	client.objects["other/ancient.json"] = object{modified: now.Add(-400 * 24 * time.Hour)}
	client.failKey = KeyPrefix + "locked.json"

	deleted, err := NewUploader(client, "bucket", logger.Discard()).Prune(ctx, now, DefaultRetention)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, []string{KeyPrefix + "old.json"}, client.deletions)
	assert.Contains(t, client.objects, "other/ancient.json")
	assert.Contains(t, client.objects, KeyPrefix+"fresh.json")
}

func TestWriteTo(t *testing.T) {
	snap := &Snapshot{Version: 1, TakenAt: now, Invites: []*domain.Invite{}, Responses: []*domain.Response{}}
	var buf bytes.Buffer
	n, err := snap.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Contains(t, buf.String(), `"invites": []`)
}

func TestNewS3ClientRequiresCredentials(t *testing.T) {
	_, err := NewS3Client(context.Background(), S3Config{Bucket: "b"})
	assert.Error(t, err)
}
