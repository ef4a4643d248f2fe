package swarm

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	instanceBucket = []byte("_instance")
	instanceKey    = []byte("instance")
)

type InstanceID string

func (id InstanceID) String() string {
	return string(id)
}

// Instance identifies this service on the local network
type Instance struct {
	ID         InstanceID        `json:"id"`
	Name       string            `json:"name"`
	Properties map[string]string `json:"properties,omitempty"`
}

// LoadOrCreateInstance returns the instance stored in db, a new instance with
// a random id is created on first use. The properties are not persisted.
func LoadOrCreateInstance(db *bolt.DB, properties map[string]string) (*Instance, error) {
	var instance Instance
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(instanceBucket)
		if err != nil {
			return err
		}
		if data := b.Get(instanceKey); data != nil {
			return json.Unmarshal(data, &instance)
		}
		instance = Instance{ID: InstanceID(uuid.New().String()), Name: defaultName()}
		data, err := json.Marshal(&instance)
		if err != nil {
			return err
		}
		return b.Put(instanceKey, data)
	})
	if err != nil {
		return nil, err
	}
	instance.Properties = map[string]string{"id": string(instance.ID)}
	for k, v := range properties {
		instance.Properties[k] = v
	}
	return &instance, nil
}

func defaultName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "tourist"
	}
	return "tourist on " + host
}
