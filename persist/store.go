package persist

import (
	"github.com/hyyp-go/hyyp/gcm"
	"github.com/hyyp-go/hyyp/log2"
	"github.com/juju/errors"
)

// Store is listener state directory: credentials and persistent ids.
type Store struct {
	log         *log2.Log
	credentials gcm.Credentials
	hasCreds    bool
	ids         PersistentIDs
	pCreds      Persist
	pIDs        Persist
}

// Open loads whatever is stored under root. Missing data is not an error.
func Open(root string, log *log2.Log) (*Store, error) {
	s := &Store{log: log}
	if err := s.pCreds.Init(TagCredentials, &s.credentials, root, true, log); err != nil {
		return nil, err
	}
	if err := s.pIDs.Init(TagPersistentIDs, &s.ids, root, true, log); err != nil {
		return nil, err
	}
	var err error
	if s.hasCreds, err = s.pCreds.Load(); err != nil {
		return nil, err
	}
	if _, err = s.pIDs.Load(); err != nil {
		return nil, err
	}
	log.Debugf("persist open root=%s credentials=%t persistent_ids=%d", root, s.hasCreds, s.ids.Len())
	return s, nil
}

// Credentials returns nil when none stored.
func (s *Store) Credentials() *gcm.Credentials {
	if !s.hasCreds {
		return nil
	}
	c := s.credentials
	return &c
}

func (s *Store) SaveCredentials(c *gcm.Credentials) error {
	if err := c.Validate(); err != nil {
		return errors.Annotate(err, "persist credentials")
	}
	s.credentials = *c
	if err := s.pCreds.Store(); err != nil {
		return err
	}
	s.hasCreds = true
	return nil
}

func (s *Store) PersistentIDs() []string { return s.ids.List() }

// AddPersistentIDs writes to disk only when something new was added.
func (s *Store) AddPersistentIDs(ids ...string) error {
	if s.ids.Add(ids...) == 0 {
		return nil
	}
	return s.pIDs.Store()
}
