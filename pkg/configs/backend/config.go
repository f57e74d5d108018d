package backend

import (
	"time"
)

// Configuration of the kagami daemon.
//
// To get a KagamiConfig instance, use TrySeal on the marshalled form.
// Instances are immutable: getters only.
type KagamiConfig struct {
	port    int32
	console *ConsoleConfig
	cluster *ClusterConfig
	tasks   *TasksConfig
}

// Port of the ops HTTP endpoint (health, task snapshot).
func (c *KagamiConfig) Port() int32 {
	return c.port
}

func (c *KagamiConfig) Console() *ConsoleConfig {
	return c.console
}

func (c *KagamiConfig) Cluster() *ClusterConfig {
	return c.cluster
}

func (c *KagamiConfig) Tasks() *TasksConfig {
	return c.tasks
}

// Configuration of the admin console listener.
type ConsoleConfig struct {
	port int32
}

func (c *ConsoleConfig) Port() int32 {
	return c.port
}

// Configuration of cluster connections and the mirror database.
type ClusterConfig struct {
	namespace     string
	database      string
	kubeconfigDir string
	userScoping   bool
}

// Namespace used when requests do not name one.
func (c *ClusterConfig) Namespace() string {
	return c.namespace
}

// Connection string for the mirror database.
func (c *ClusterConfig) Database() string {
	return c.database
}

// Directory scanned for additional clusters' kubeconfig files.
// Empty = only the default cluster.
func (c *ClusterConfig) KubeconfigDir() string {
	return c.kubeconfigDir
}

// When true, the mirror rejects writes without a user id.
func (c *ClusterConfig) UserScoping() bool {
	return c.userScoping
}

// Configuration of supervised background tasks.
type TasksConfig struct {
	maxRetryWait time.Duration
	resync       *ResyncConfig
	sweep        *SweepConfig
}

// MaxRetryWait bounds the wait between restarts of a failing task.
func (c *TasksConfig) MaxRetryWait() time.Duration {
	return c.maxRetryWait
}

func (c *TasksConfig) Resync() *ResyncConfig {
	return c.resync
}

func (c *TasksConfig) Sweep() *SweepConfig {
	return c.sweep
}

// Configuration of the anti-entropy resync task.
type ResyncConfig struct {
	interval time.Duration
	kinds    []ResyncKind
}

func (c *ResyncConfig) Interval() time.Duration {
	return c.interval
}

// Kinds lists the group/version/kinds kept in sync with the clusters.
func (c *ResyncConfig) Kinds() []ResyncKind {
	kinds := make([]ResyncKind, len(c.kinds))
	copy(kinds, c.kinds)
	return kinds
}

// ResyncKind names one resource type to mirror.
type ResyncKind struct {
	Group   string
	Version string
	Kind    string
}

// Configuration of the tombstone sweep task.
type SweepConfig struct {
	interval  time.Duration
	retention time.Duration
}

func (c *SweepConfig) Interval() time.Duration {
	return c.interval
}

// Retention is how long tombstoned rows are kept before hard removal.
func (c *SweepConfig) Retention() time.Duration {
	return c.retention
}
