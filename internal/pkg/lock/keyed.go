// Package lock implementa a seção crítica por produto: a sequência
// ler-validar-escrever sobre o estoque de um produto nunca intercala com
// outra sobre o mesmo produto. Produtos distintos são independentes.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTimeout indica que a seção crítica não foi obtida dentro do prazo.
var ErrTimeout = errors.New("lock: tempo esgotado aguardando a seção crítica")

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Keyed é um conjunto de locks exclusivos indexados por chave, com espera limitada.
// Entradas sem interessados são removidas, então o mapa não cresce com o catálogo.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	timeout time.Duration
}

// NewKeyed cria o conjunto de locks. timeout <= 0 significa esperar apenas pelo ctx.
func NewKeyed(timeout time.Duration) *Keyed {
	return &Keyed{entries: make(map[string]*entry), timeout: timeout}
}

// Acquire obtém a seção crítica de key. A função devolvida libera o lock e deve
// ser chamada exatamente uma vez.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	e := k.ref(key)

	waitCtx := ctx
	if k.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		k.unref(key)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			k.unref(key)
		})
	}, nil
}

func (k *Keyed) ref(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *Keyed) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// Len devolve o número de chaves com interessados (locks mantidos ou aguardando).
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
