package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/storage"
)

// settingsNamespace holds values visible from every state root, e.g. genesis settings.
var settingsNamespace = datastore.NewKey("/settings")

// ViewFactory creates read-only views over a datastore holding state entries
// keyed by state root. A key missing at a root falls through to the settings
// namespace.
type ViewFactory struct {
	ds datastore.Datastore
}

var _ module.StateViewFactory = (*ViewFactory)(nil)

// NewViewFactory wraps the given datastore. Pass nil to use a thread-safe in-memory map datastore.
func NewViewFactory(ds datastore.Datastore) *ViewFactory {
	if ds == nil {
		ds = dssync.MutexWrap(datastore.NewMapDatastore())
	}
	return &ViewFactory{ds: ds}
}

// Put stores a value visible at the given state root.
func (f *ViewFactory) Put(root ledger.StateCommitment, key string, value []byte) error {
	return f.ds.Put(context.Background(), rootKey(root, key), value)
}

// PutSetting stores a value visible at every state root.
func (f *ViewFactory) PutSetting(key string, value []byte) error {
	return f.ds.Put(context.Background(), settingsNamespace.ChildString(key), value)
}

func (f *ViewFactory) NewStateView(root ledger.StateCommitment) (module.StateView, error) {
	return &View{ds: f.ds, root: root}, nil
}

// View reads the state at one root.
type View struct {
	ds   datastore.Datastore
	root ledger.StateCommitment
}

// Get returns the value stored under key. It returns storage.ErrNotFound if the key is unset.
func (v *View) Get(key string) ([]byte, error) {
	ctx := context.Background()
	value, err := v.ds.Get(ctx, rootKey(v.root, key))
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, datastore.ErrNotFound) {
		return nil, fmt.Errorf("could not read %s at root %s: %w", key, v.root, err)
	}

	value, err = v.ds.Get(ctx, settingsNamespace.ChildString(key))
	if errors.Is(err, datastore.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read setting %s: %w", key, err)
	}
	return value, nil
}

func rootKey(root ledger.StateCommitment, key string) datastore.Key {
	return datastore.NewKey("/state").ChildString(root.String()).ChildString(key)
}
