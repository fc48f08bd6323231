package client

import (
	"context"
	"encoding/json"
	"fmt"

	ds "github.com/ipfs/go-datastore"
	dslvl "github.com/ipfs/go-ds-leveldb"

	"github.com/relaysystems/gfscore/core/model"
)

// FileCache is a disk-backed, file-name-keyed cache of each file's
// last-known chunk map, adapted from the teacher's FileMetadataStore.
// Per spec.md §4.5 it is a hint, not a source of truth: callers refresh
// it on ReplicaUnavailable/NotFound rather than trusting it blindly.
type FileCache struct {
	store *dslvl.Datastore
}

func NewFileCache(path string) (*FileCache, error) {
	store, err := dslvl.NewDatastore(fmt.Sprintf("%s/files", path), nil)
	if err != nil {
		return nil, err
	}

	return &FileCache{store: store}, nil
}

func (f *FileCache) Get(fileName string) ([]model.ChunkDescriptor, bool) {
	k := ds.NewKey(fileName)
	b, err := f.store.Get(context.Background(), k)
	if err != nil {
		return nil, false
	}

	var chunks []model.ChunkDescriptor
	if err := json.Unmarshal(b, &chunks); err != nil {
		return nil, false
	}

	return chunks, true
}

func (f *FileCache) Put(fileName string, chunks []model.ChunkDescriptor) error {
	b, err := json.Marshal(chunks)
	if err != nil {
		return err
	}

	return f.store.Put(context.Background(), ds.NewKey(fileName), b)
}

func (f *FileCache) Delete(fileName string) {
	_ = f.store.Delete(context.Background(), ds.NewKey(fileName))
}
