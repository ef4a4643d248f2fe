package boltstore

import (
	bolt "go.etcd.io/bbolt"
)

// Cursor provides iteration in either direction over a bolt.Cursor
type Cursor interface {
	Reverse() Cursor
	First() (key, value []byte)
	Next() (key, value []byte)
}

type forwardCursor struct {
	delegate *bolt.Cursor
}

type reverseCursor struct {
	delegate *bolt.Cursor
}

func newForwardCursor(delegate *bolt.Cursor) Cursor {
	return &forwardCursor{delegate: delegate}
}

func (c *forwardCursor) Reverse() Cursor {
	return newReverseCursor(c.delegate)
}

func (c *forwardCursor) First() (key []byte, value []byte) {
	return c.delegate.First()
}

func (c *forwardCursor) Next() (key []byte, value []byte) {
	return c.delegate.Next()
}

func newReverseCursor(delegate *bolt.Cursor) Cursor {
	return &reverseCursor{delegate: delegate}
}

func (c *reverseCursor) Reverse() Cursor {
	return newForwardCursor(c.delegate)
}

func (c *reverseCursor) First() (key, value []byte) {
	return c.delegate.Last()
}

func (c *reverseCursor) Next() (key []byte, value []byte) {
	return c.delegate.Prev()
}

// forEach calls f for every value in cursor order, nested buckets are skipped
func forEach(c Cursor, f func(k, v []byte) error) error {
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if v == nil {
			continue
		}
		if err := f(k, v); err != nil {
			return err
		}
	}
	return nil
}
