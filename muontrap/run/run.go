package run

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/AlmiS/muontrap/muontrap/cgroup"
	"github.com/AlmiS/muontrap/muontrap/container"
)

// Config 命令行解析完成后的全部运行参数，解析之后不再修改
type Config struct {
	Path        string
	Controllers []*cgroup.Controller
	GraceMicros int
	Uid         int
	Gid         int
	Program     string
	Args        []string
}

// Run
/*
helper的主流程，返回进程的退出码：
1.先注册信号，SIGCHLD/SIGINT/SIGQUIT/SIGTERM都汇入同一个channel，事件循环按内核投递顺序消费
2.创建cgroup目录并写入配置，任何一步失败都直接退出
3.拉起子进程，子进程在exec之前自己挂进cgroup并降权，父进程保留权限，
  否则清理阶段就没法写cgroup.procs和删目录了
4.事件循环监听stdin/stdout挂断和信号，决定退出码
清理挂在defer上，所有退出路径都会先杀光cgroup里的进程再删目录
*/
func Run(cfg *Config) int {
	signals := make(chan os.Signal, 16)
	signal.Notify(signals, syscall.SIGCHLD, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	mgr := cgroup.NewManager(cgroup.DefaultRoot, cfg.Path, cfg.Controllers)
	defer cleanup(mgr)

	if err := mgr.Create(); err != nil {
		log.Errorf("create cgroup err: %v", err)
		return 1
	}
	if err := mgr.Set(); err != nil {
		log.Errorf("set cgroup err: %v", err)
		return 1
	}

	pid, err := startChild(cfg, mgr)
	if err != nil {
		log.Errorf("start child err: %v", err)
		return 1
	}
	log.Debugf("child started, pid %d", pid)

	return eventLoop(pid, cfg.GraceMicros, signals, watchHangup(0), watchHangup(1))
}

func startChild(cfg *Config, mgr *cgroup.Manager) (int, error) {
	payload := &container.Payload{
		Procfiles: mgr.Procfiles(),
		Gid:       cfg.Gid,
		Uid:       cfg.Uid,
		Program:   cfg.Program,
		Args:      cfg.Args,
	}
	cmd, readPipe, err := container.NewParentProcess(payload)
	if err != nil {
		return 0, err
	}
	if err := cmd.Start(); err != nil {
		readPipe.Close()
		return 0, fmt.Errorf("fork err: %v", err)
	}
	// 读端已经复制进子进程，父进程这份要关掉，子进程才能读到EOF
	readPipe.Close()
	return cmd.Process.Pid, nil
}

// eventLoop
/*
等待三类事件，同时就绪时按下面的顺序处理，挂断优先于信号
（select本身在多个就绪分支间随机选，信号分支里先确认一次stdin/stdout没有关闭）：
1.stdin或stdout被宿主关闭，说明宿主不在了，温和地干掉子进程后以0退出
2.SIGCHLD，回收一个子进程，是直接子进程的话取它的退出码作为自己的退出码，
  其它pid（比如被重新收养的孙进程）只记日志
3.SIGINT/SIGQUIT/SIGTERM，以失败码退出，这里不直接杀子进程，清理阶段统一负责
*/
func eventLoop(childPid, graceMicros int, signals chan os.Signal, stdinClosed, stdoutClosed <-chan struct{}) int {
	for {
		select {
		case <-stdinClosed:
			log.Debugf("stdin closed, cleaning up")
			killChildNicely(childPid, graceMicros)
			return 0

		case <-stdoutClosed:
			log.Debugf("stdout closed, cleaning up")
			killChildNicely(childPid, graceMicros)
			return 0

		case s := <-signals:
			// 挂断已经就绪时丢弃这个信号，回到select走挂断分支
			select {
			case <-stdinClosed:
				continue
			case <-stdoutClosed:
				continue
			default:
			}
			switch s {
			case syscall.SIGCHLD:
				var ws unix.WaitStatus
				dyingPid, err := unix.Wait4(-1, &ws, 0, nil)
				if err != nil {
					log.Errorf("wait err: %v", err)
					return 1
				}
				if dyingPid == childPid {
					if ws.Exited() {
						log.Debugf("child exited, status %d", ws.ExitStatus())
						return ws.ExitStatus()
					}
					log.Debugf("child terminated abnormally, status %v", ws)
					return 1
				}
				log.Infof("ignoring SIGCHLD for pid %d, our child is %d", dyingPid, childPid)

			case syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM:
				log.Debugf("got signal %v, exiting", s)
				return 1

			default:
				log.Errorf("unexpected signal: %v", s)
				return 1
			}
		}
	}
}
