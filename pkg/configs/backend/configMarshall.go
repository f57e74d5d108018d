package backend

import (
	"fmt"
	"time"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/backend.XxxMarshall` are `Marshalled[*Xxx]`.
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

func required[T comparable](value T, path string) T {
	if value == *new(T) {
		panic(fmt.Errorf("%s is required", path))
	}
	return value
}

func nonnil[T any](value *T, path string) *T {
	if value == nil {
		panic(fmt.Errorf("%s is required", path))
	}
	return value
}

type KagamiConfigMarshall struct {
	Port    int32                  `yaml:"port"`
	Console *ConsoleConfigMarshall `yaml:"console"`
	Cluster *ClusterConfigMarshall `yaml:"cluster"`
	Tasks   *TasksConfigMarshall   `yaml:"tasks"`
}

var _ Marshalled[*KagamiConfig] = &KagamiConfigMarshall{}

func (k *KagamiConfigMarshall) trySeal(path string) *KagamiConfig {
	return &KagamiConfig{
		port:    required(k.Port, path+".port"),
		console: nonnil(k.Console, path+".console").trySeal(path + ".console"),
		cluster: nonnil(k.Cluster, path+".cluster").trySeal(path + ".cluster"),
		tasks:   nonnil(k.Tasks, path+".tasks").trySeal(path + ".tasks"),
	}
}

type ConsoleConfigMarshall struct {
	Port int32 `yaml:"port"`
}

func (c *ConsoleConfigMarshall) trySeal(path string) *ConsoleConfig {
	return &ConsoleConfig{
		port: required(c.Port, path+".port"),
	}
}

// Configuration of cluster connections and the mirror database.
//
// This type is marshalling value and mutable.
// Consider to use the immutable version, ClusterConfig, via TrySeal.
type ClusterConfigMarshall struct {
	Namespace     string `yaml:"namespace"`
	Database      string `yaml:"database"`
	KubeconfigDir string `yaml:"kubeconfigDir,omitempty"`
	UserScoping   bool   `yaml:"userScoping,omitempty"`
}

func (c *ClusterConfigMarshall) trySeal(path string) *ClusterConfig {
	namespace := c.Namespace
	if namespace == "" {
		namespace = "default"
	}
	return &ClusterConfig{
		namespace:     namespace,
		database:      required(c.Database, path+".database"),
		kubeconfigDir: c.KubeconfigDir,
		userScoping:   c.UserScoping,
	}
}

type TasksConfigMarshall struct {
	MaxRetryWaitSeconds int32                 `yaml:"maxRetryWaitSeconds"`
	Resync              *ResyncConfigMarshall `yaml:"resync"`
	Sweep               *SweepConfigMarshall  `yaml:"sweep"`
}

func (t *TasksConfigMarshall) trySeal(path string) *TasksConfig {
	return &TasksConfig{
		maxRetryWait: seconds(required(t.MaxRetryWaitSeconds, path+".maxRetryWaitSeconds")),
		resync:       nonnil(t.Resync, path+".resync").trySeal(path + ".resync"),
		sweep:        nonnil(t.Sweep, path+".sweep").trySeal(path + ".sweep"),
	}
}

type ResyncConfigMarshall struct {
	IntervalSeconds int32                `yaml:"intervalSeconds"`
	Kinds           []ResyncKindMarshall `yaml:"kinds"`
}

func (r *ResyncConfigMarshall) trySeal(path string) *ResyncConfig {
	if len(r.Kinds) == 0 {
		panic(fmt.Errorf("%s.kinds needs at least one entry", path))
	}
	kinds := make([]ResyncKind, len(r.Kinds))
	for i, k := range r.Kinds {
		kinds[i] = k.trySeal(fmt.Sprintf("%s.kinds[%d]", path, i))
	}
	return &ResyncConfig{
		interval: seconds(required(r.IntervalSeconds, path+".intervalSeconds")),
		kinds:    kinds,
	}
}

type ResyncKindMarshall struct {
	Group   string `yaml:"group,omitempty"`
	Version string `yaml:"version"`
	Kind    string `yaml:"kind"`
}

func (r ResyncKindMarshall) trySeal(path string) ResyncKind {
	return ResyncKind{
		Group:   r.Group, // empty = core group
		Version: required(r.Version, path+".version"),
		Kind:    required(r.Kind, path+".kind"),
	}
}

type SweepConfigMarshall struct {
	IntervalSeconds int32 `yaml:"intervalSeconds"`
	RetentionHours  int32 `yaml:"retentionHours"`
}

func (s *SweepConfigMarshall) trySeal(path string) *SweepConfig {
	return &SweepConfig{
		interval:  seconds(required(s.IntervalSeconds, path+".intervalSeconds")),
		retention: time.Duration(required(s.RetentionHours, path+".retentionHours")) * time.Hour,
	}
}

func seconds(n int32) time.Duration {
	return time.Duration(n) * time.Second
}
