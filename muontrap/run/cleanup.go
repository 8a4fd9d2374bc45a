package run

import (
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/AlmiS/muontrap/muontrap/cgroup"
)

// cleanup
/*
所有退出路径共用的清理逻辑，挂在Run的defer上，只会执行一次：
1.先把信号处理还原，清理过程中再来信号也不会重入
2.cgroup里还有进程就反复SIGKILL，每轮之间睡1ms，最多10轮
3.还杀不干净就再来10轮不睡眠的强杀
4.仍然有残留只告警不阻塞，清理流程本身不能卡死
5.最后删掉本进程创建的cgroup目录
*/
func cleanup(mgr *cgroup.Manager) {
	log.Debugf("cleaning up")

	signal.Reset(syscall.SIGCHLD, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	retries := 10
	for retries > 0 && mgr.HasProcesses() {
		mgr.SignalAll(unix.SIGKILL)
		time.Sleep(time.Millisecond)
		retries--
	}

	if retries == 0 {
		retries = 10
		for retries > 0 && mgr.HasProcesses() {
			mgr.SignalAll(unix.SIGKILL)
			retries--
		}
		if retries == 0 {
			log.Warnf("failed to kill all children even after retrying")
		}
	}

	mgr.Destroy()
	log.Debugf("cleanup done")
}
