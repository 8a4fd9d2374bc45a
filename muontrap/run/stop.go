package run

import (
	"time"

	"golang.org/x/sys/unix"
)

// killChildNicely
/*
只针对直接子进程的温和终止：先SIGTERM，等graceMicros微秒，再SIGKILL兜底
graceMicros为0时不等待。孙进程不在这里处理，清理阶段会按cgroup.procs杀，
比沿进程树找后代可靠，后代进程经常会setsid或者二次fork
*/
func killChildNicely(pid, graceMicros int) {
	_ = unix.Kill(pid, unix.SIGTERM)

	if graceMicros > 0 {
		time.Sleep(time.Duration(graceMicros) * time.Microsecond)
	}

	_ = unix.Kill(pid, unix.SIGKILL)
}
