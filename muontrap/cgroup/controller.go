package cgroup

// Setting 是写入cgroup控制文件的一条配置，Key就是目录下的文件名
type Setting struct {
	Key   string
	Value string
}

// Controller 对应命令行中一个 -c 声明的cgroup子系统
type Controller struct {
	Name     string
	Settings []Setting

	// 下面两个路径由Manager在初始化时计算出来
	dir      string
	procfile string
	created  bool
}

func NewController(name string) *Controller {
	return &Controller{Name: name}
}

// AddSetting
/*
追加一条配置，保持声明顺序，后面写文件时按这个顺序写入
同一个Key声明多次时不去重，后写的覆盖先写的
*/
func (c *Controller) AddSetting(key, value string) {
	c.Settings = append(c.Settings, Setting{Key: key, Value: value})
}

// Dir 该子系统下本进程创建的cgroup目录，如：/sys/fs/cgroup/memory/scope/job1
func (c *Controller) Dir() string {
	return c.dir
}

// Procfile cgroup.procs文件的路径，写入pid就能把进程加入cgroup
func (c *Controller) Procfile() string {
	return c.procfile
}
