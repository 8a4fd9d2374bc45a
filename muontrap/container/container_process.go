package container

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Payload 父进程通过管道传给子进程的启动信息
type Payload struct {
	Procfiles []string `json:"procfiles"`
	Gid       int      `json:"gid"`
	Uid       int      `json:"uid"`
	Program   string   `json:"program"`
	Args      []string `json:"args"`
}

// NewParentProcess
/*
Go没有裸的fork，这里沿用 /proc/self/exe 自调用的方式拉起子进程：
1.子进程重新执行本程序并进入child子命令，在exec用户程序之前完成cgroup挂载和降权
2.启动信息序列化后写入管道，管道的读端通过ExtraFiles传给子进程，即fd 3
3.标准输入输出错误全部继承，宿主关闭stdin/stdout时父进程能感知到
返回的readPipe由调用方在Start之后关闭
*/
func NewParentProcess(p *Payload) (*exec.Cmd, *os.File, error) {
	readPipe, writePipe, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create pipe err: %v", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		readPipe.Close()
		writePipe.Close()
		return nil, nil, fmt.Errorf("json marshal payload err: %v", err)
	}

	cmd := exec.Command("/proc/self/exe", "child")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// 将管道的读端传入子进程
	cmd.ExtraFiles = []*os.File{readPipe}

	if _, err := writePipe.Write(data); err != nil {
		readPipe.Close()
		writePipe.Close()
		return nil, nil, fmt.Errorf("write payload err: %v", err)
	}
	writePipe.Close()

	return cmd, readPipe, nil
}
