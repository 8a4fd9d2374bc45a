package cgroup

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DefaultRoot cgroup v1各子系统挂载的根目录位置
const DefaultRoot = "/sys/fs/cgroup"

type Manager struct {
	Root        string
	Path        string
	Controllers []*Controller
}

// NewManager
/*
1.root是cgroup的挂载根目录，正常传DefaultRoot，测试时可以指到临时目录
2.path是所有子系统共用的相对路径，即 -p 参数
3.构造时就把每个Controller的目录和cgroup.procs路径算好，后面不再变化
*/
func NewManager(root, cgroupPath string, controllers []*Controller) *Manager {
	m := &Manager{
		Root:        root,
		Path:        cgroupPath,
		Controllers: controllers,
	}
	for _, c := range m.Controllers {
		c.dir = path.Join(m.Root, c.Name, m.Path)
		c.procfile = path.Join(c.dir, "cgroup.procs")
	}
	return m
}

// Create
/*
按声明顺序创建每个子系统下的cgroup目录
1.叶子目录已经存在时直接报错，避免挂到别人正在用的cgroup上，也避免清理时删掉不属于我们的目录
2.中间缺失的目录一并创建，权限都是0755
3.创建成功的目录打上created标记，Destroy时只删这些
*/
func (m *Manager) Create() error {
	for _, c := range m.Controllers {
		if _, err := os.Stat(c.dir); err == nil {
			return fmt.Errorf("'%s' already exists. Please specify a deeper path or clean up the cgroup", c.dir)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s err: %v", c.dir, err)
		}
		log.Debugf("create cgroup: mkdir -p %s", c.dir)
		if err := os.MkdirAll(c.dir, 0755); err != nil {
			return fmt.Errorf("couldn't create '%s', check permissions: %v", c.dir, err)
		}
		c.created = true
	}
	return nil
}

// Set 按声明顺序把每个Controller的配置写入对应文件，任何一条写失败都直接返回错误
func (m *Manager) Set() error {
	for _, c := range m.Controllers {
		for _, s := range c.Settings {
			settingFile := path.Join(c.dir, s.Key)
			log.Debugf("write cgroup setting: %s = %s", settingFile, s.Value)
			if err := ioutil.WriteFile(settingFile, []byte(s.Value), 0644); err != nil {
				return fmt.Errorf("error writing '%s' to '%s': %v", s.Value, settingFile, err)
			}
		}
	}
	return nil
}

// AttachPid 把pid写入cgroup.procs，进程随之被移入该cgroup
func AttachPid(procfile string, pid int) error {
	if err := ioutil.WriteFile(procfile, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("can't add pid to %s: %v", procfile, err)
	}
	return nil
}

// Procfiles 所有Controller的cgroup.procs路径，传给子进程用于自我挂载
func (m *Manager) Procfiles() []string {
	var files []string
	for _, c := range m.Controllers {
		files = append(files, c.procfile)
	}
	return files
}

// Pids
/*
汇总所有Controller的cgroup.procs里列出的pid
1.文件不存在当作没有进程，cgroup可能已经被外部清掉了
2.内容按空白分隔解析成十进制pid，解析不了的条目跳过
*/
func (m *Manager) Pids() []int {
	var pids []int
	for _, c := range m.Controllers {
		content, err := ioutil.ReadFile(c.procfile)
		if err != nil {
			continue
		}
		for _, field := range strings.Fields(string(content)) {
			pid, err := strconv.Atoi(field)
			if err != nil {
				continue
			}
			pids = append(pids, pid)
		}
	}
	return pids
}

// HasProcesses cgroup里是否还有活着的进程
func (m *Manager) HasProcesses() bool {
	return len(m.Pids()) > 0
}

// SignalAll 给cgroup里的每个进程发信号，发送失败忽略，进程可能刚好退出了
func (m *Manager) SignalAll(sig unix.Signal) {
	for _, pid := range m.Pids() {
		log.Debugf("kill -%d %d", sig, pid)
		_ = unix.Kill(pid, sig)
	}
}

// Destroy
/*
删除本进程创建的cgroup叶子目录
1.只删Create成功标记过的目录，预先存在的目录不会被碰
2.删除失败忽略，清理必须是幂等的，目录可能已经被外部删掉
*/
func (m *Manager) Destroy() {
	for _, c := range m.Controllers {
		if !c.created {
			continue
		}
		log.Debugf("rmdir %s", c.dir)
		_ = os.Remove(c.dir)
	}
}
