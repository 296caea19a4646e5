package bolt

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/devboardui/devboard/db"
	"go.etcd.io/bbolt"
)

const (
	bucketUsers    = "users"
	bucketProjects = "projects"
	bucketInvites  = "project__invite"
)

// BoltDb is the embedded durable store backend. Buckets hold JSON-encoded
// entities keyed by a big-endian uint32 sequence id; per-project entities
// (members, messages) live in per-project buckets.
type BoltDb struct {
	Filename string
	db       *bbolt.DB
}

func NewBoltDb(filename string) *BoltDb {
	return &BoltDb{Filename: filename}
}

func (d *BoltDb) Connect() error {
	var err error
	d.db, err = bbolt.Open(d.Filename, 0600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	return err
}

func (d *BoltDb) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func idKey(id int) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, uint32(id))
	return k
}

func projectBucket(prefix string, projectID int) []byte {
	return append([]byte("project__"+prefix+"_"), idKey(projectID)...)
}

func putObject(b *bbolt.Bucket, key []byte, object any) error {
	j, err := json.Marshal(object)
	if err != nil {
		return err
	}
	return b.Put(key, j)
}

func getObject(b *bbolt.Bucket, key []byte, object any) error {
	if b == nil {
		return db.ErrNotFound
	}
	data := b.Get(key)
	if data == nil {
		return db.ErrNotFound
	}
	return json.Unmarshal(data, object)
}

// nextID allocates a sequence id in the given bucket.
func nextID(b *bbolt.Bucket) (int, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	return int(seq), nil
}
