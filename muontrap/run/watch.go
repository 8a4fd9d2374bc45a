package run

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// watchHangup
/*
监视一个fd的挂断状态，宿主关闭管道另一端时返回的channel会被close：
1.POLLHUP在events里，POLLERR不用注册，内核总会上报
2.poll被信号打断时重试，这个goroutine不处理信号
3.这里只关心revents出现与否，不读数据，stdin上的数据留给子进程
*/
func watchHangup(fd int) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLHUP}}
		for {
			n, err := unix.Poll(fds, -1)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				log.Errorf("poll fd %d err: %v", fd, err)
				return
			}
			if n > 0 && fds[0].Revents != 0 {
				return
			}
		}
	}()
	return ch
}
