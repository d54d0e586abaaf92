package snipelist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type staticSource struct {
	mu    sync.Mutex
	mints []string
	err   error
}

func (s *staticSource) Load(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mints, s.err
}

func (s *staticSource) set(mints []string, err error) {
	s.mu.Lock()
	s.mints, s.err = mints, err
	s.mu.Unlock()
}

func TestFileSource(t *testing.T) {
	a, b := newKey(t), newKey(t)
	path := filepath.Join(t.TempDir(), "snipe-list.txt")
	content := a.String() + "\n\n  # comment\n " + b.String() + " \r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	mints, err := (&FileSource{Path: path}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{a.String(), b.String()}, mints)

	_, err = (&FileSource{Path: filepath.Join(t.TempDir(), "missing")}).Load(context.Background())
	assert.Error(t, err)
}

func TestSnipeList_Refresh(t *testing.T) {
	a, b := newKey(t), newKey(t)
	src := &staticSource{mints: []string{a.String(), "not-a-mint"}}
	l := New(Config{Source: src, Logger: quietLogger()})

	require.NoError(t, l.Refresh(context.Background()))
	assert.True(t, l.Contains(a))
	assert.False(t, l.Contains(b))
	assert.Equal(t, []string{a.String()}, l.Mints())

	// a failed load keeps the previous contents
	src.set([]string{a.String()}, errors.New("disk gone"))
	assert.Error(t, l.Refresh(context.Background()))
	assert.True(t, l.Contains(a))

	// removal takes effect on the next refresh
	src.set([]string{b.String()}, nil)
	require.NoError(t, l.Refresh(context.Background()))
	assert.False(t, l.Contains(a))
	assert.True(t, l.Contains(b))
}

func TestSnipeList_Run(t *testing.T) {
	a := newKey(t)
	src := &staticSource{}
	l := New(Config{Source: src, RefreshInterval: 5 * time.Millisecond, Logger: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	src.set([]string{a.String()}, nil)

	assert.Eventually(t, func() bool { return l.Contains(a) }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestValidateMint(t *testing.T) {
	_, err := ValidateMint("xyz")
	assert.ErrorIs(t, err, ErrInvalidMint)

	k := newKey(t)
	pk, err := ValidateMint(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, pk)
}
