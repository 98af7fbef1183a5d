package conversation

import (
	"context"
	"sync"
)

// LocalLocker 进程内发送锁，用于单实例或未启用 Redis 的部署
type LocalLocker struct {
	mu      sync.Mutex
	holding map[string]struct{}
}

// NewLocalLocker 创建进程内发送锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{holding: make(map[string]struct{})}
}

func (l *LocalLocker) TryAcquire(_ context.Context, conversationID string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.holding[conversationID]; busy {
		return nil, false, nil
	}
	l.holding[conversationID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.holding, conversationID)
			l.mu.Unlock()
		})
	}, true, nil
}
