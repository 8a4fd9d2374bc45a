package container

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/AlmiS/muontrap/muontrap/cgroup"
)

// RunChildProcess
/*
child子命令的入口，此时还是helper自身的代码在跑，用户程序尚未exec：
1.从fd 3读出父进程写入的Payload
2.先把自己的pid写进每个cgroup.procs，保证exec任意代码之前已经在cgroup里
3.再降权，必须先setgid后setuid，uid一旦降下去就可能没有权限再改组了
4.最后exec用户程序，进程映像被替换，pid不变
exec失败时本函数返回错误，由调用方以非零状态退出
*/
func RunChildProcess() error {
	p, err := readPayload()
	if err != nil {
		return err
	}
	log.Debugf("child pid %d, program %s, args %v", os.Getpid(), p.Program, p.Args)

	for _, procfile := range p.Procfiles {
		if err := cgroup.AttachPid(procfile, os.Getpid()); err != nil {
			return err
		}
	}

	if p.Gid > 0 {
		if err := syscall.Setgid(p.Gid); err != nil {
			return fmt.Errorf("setgid(%d) err: %v", p.Gid, err)
		}
	}
	if p.Uid > 0 {
		if err := syscall.Setuid(p.Uid); err != nil {
			return fmt.Errorf("setuid(%d) err: %v", p.Uid, err)
		}
	}

	// execvp语义，program不带斜杠时在PATH里找
	path, err := exec.LookPath(p.Program)
	if err != nil {
		return fmt.Errorf("look path %s err: %v", p.Program, err)
	}
	if err := syscall.Exec(path, p.Args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s err: %v", path, err)
	}
	return nil
}

func readPayload() (*Payload, error) {
	// 父进程写完payload就会关掉写端，这里读到EOF为止
	pipe := os.NewFile(uintptr(3), "payload-pipe")
	defer pipe.Close()
	data, err := ioutil.ReadAll(pipe)
	if err != nil {
		return nil, fmt.Errorf("read payload pipe err: %v", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("json unmarshal payload err: %v", err)
	}
	if p.Program == "" {
		return nil, fmt.Errorf("empty program in payload")
	}
	return &p, nil
}
