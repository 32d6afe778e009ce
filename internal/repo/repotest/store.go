package repotest

import "context"

// Store adapta Memory ao Store de um serviço; R é a interface Repository do pacote.
type Store[R any] struct {
	Mem  *Memory
	View func(*Memory) R
}

func (s Store[R]) RunInTx(_ context.Context, fn func(q R) error) error {
	return s.Mem.Tx(func(m *Memory) error { return fn(s.View(m)) })
}

func (s Store[R]) Read(_ context.Context, fn func(q R) error) error {
	return s.Mem.Read(func(m *Memory) error { return fn(s.View(m)) })
}
