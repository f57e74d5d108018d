package k8s

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	kubemeta "k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/mikage-io/kagami/pkg/domain"
)

// DefaultClusterID names the cluster the process itself runs in
// (or the operator's local one, outside a cluster).
const DefaultClusterID = "default"

// Connect builds the dynamic client and the RESTMapper for one rest.Config.
func Connect(conf *rest.Config) (dynamic.Interface, kubemeta.RESTMapper, error) {
	dyn, err := dynamic.NewForConfig(conf)
	if err != nil {
		return nil, nil, err
	}

	disco, err := discovery.NewDiscoveryClientForConfig(conf)
	if err != nil {
		return nil, nil, err
	}
	groups, err := restmapper.GetAPIGroupResources(disco)
	if err != nil {
		return nil, nil, err
	}
	return dyn, restmapper.NewDiscoveryRESTMapper(groups), nil
}

// defaultRestConfig detects the config of the default cluster.
//
// # It searches kubeconfig from
//
// - `~/.kube/config`
//
// - environmental variable `KUBECONFIG`
//
// When no files are found from above, it tries to use in-cluster config.
func defaultRestConfig() (*rest.Config, error) {
	kubeconfig := ""

	if home := homedir.HomeDir(); home != "" {
		candidate := filepath.Join(home, ".kube", "config")
		if s, err := os.Stat(candidate); err == nil && !s.IsDir() {
			kubeconfig = candidate
		}
	}
	if k := os.Getenv("KUBECONFIG"); k != "" {
		if s, err := os.Stat(k); err == nil && !s.IsDir() {
			kubeconfig = k
		}
	}

	if kubeconfig == "" {
		return rest.InClusterConfig()
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfig)
}

// LoadConnections builds one Connection per configured cluster:
// the default one (in-cluster or local kubeconfig), plus one per
// kubeconfig file found directly under kubeconfigDir.
//
// The cluster id of a file-based connection is the file name without
// extension; files starting with "." are skipped. kubeconfigDir may be
// empty (no extra clusters) or missing (same).
func LoadConnections(logger *log.Logger, namespace string, kubeconfigDir string) ([]Connection, error) {
	conns := []Connection{}

	if conf, err := defaultRestConfig(); err != nil {
		logger.Printf("default cluster is not reachable, skipped: %s", err)
	} else {
		dyn, mapper, err := Connect(conf)
		if err != nil {
			return nil, fmt.Errorf("default cluster: %w", err)
		}
		conns = append(conns, Connection{
			ID: DefaultClusterID, Namespace: namespace, Dynamic: dyn, Mapper: mapper,
		})
	}

	if kubeconfigDir == "" {
		return conns, nil
	}
	entries, err := os.ReadDir(kubeconfigDir)
	if os.IsNotExist(err) {
		return conns, nil
	}
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(kubeconfigDir, e.Name())

		conf, err := clientcmd.BuildConfigFromFlags("", path)
		if err != nil {
			return nil, fmt.Errorf("kubeconfig %s: %w", path, err)
		}
		dyn, mapper, err := Connect(conf)
		if err != nil {
			return nil, fmt.Errorf("kubeconfig %s: %w", path, err)
		}

		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		conns = append(conns, Connection{
			ID: domain.ClusterID(id), Namespace: namespace, Dynamic: dyn, Mapper: mapper,
		})
		logger.Printf("cluster %s: loaded from %s", id, path)
	}
	return conns, nil
}
