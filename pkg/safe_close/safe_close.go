package safe_close

import (
	"sync"
)

// SafeClose 协调多个子服务的优雅关闭
// 每个子服务通过 Attach 注册，收到关闭信号后调用 done 表示退出完成
type SafeClose struct {
	mu        sync.Mutex
	wg        sync.WaitGroup
	closeChan chan struct{}
	closeOnce sync.Once
	err       error
}

// NewSafeClose 创建 SafeClose 实例
func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeChan: make(chan struct{}),
	}
}

// Attach 注册一个子服务
// f 在新 goroutine 中执行；f 必须在退出前调用 done，并监听 closeSignal
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(s.wg.Done)
	}
	go f(done, s.closeChan)
}

// SendCloseSignal 发送关闭信号，首个非 nil 错误会被记录并由 WaitClosed 返回
func (s *SafeClose) SendCloseSignal(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.closeChan)
	})
}

// ReceiveCloseSignal 返回关闭信号通道
func (s *SafeClose) ReceiveCloseSignal() <-chan struct{} {
	return s.closeChan
}

// WaitClosed 阻塞直到所有子服务退出，返回触发关闭的错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
