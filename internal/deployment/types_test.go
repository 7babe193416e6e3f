package deployment

import "testing"

func TestNetworkDriver(t *testing.T) {
	cases := []struct {
		kind       NetworkKind
		wantDriver string
		wantMode   string
	}{
		{NetworkBridge, "bridge", ""},
		{NetworkMACVLAN, "macvlan", ""},
		{NetworkInternal, "internal", ""},
		{NetworkIpvlanL2, "ipvlan", "l2"},
		{NetworkIpvlanL3, "ipvlan", "l3"},
	}
	for _, c := range cases {
		driver, mode := NetworkDriver(c.kind)
		if driver != c.wantDriver || mode != c.wantMode {
			t.Errorf("NetworkDriver(%v) = (%q, %q), want (%q, %q)", c.kind, driver, mode, c.wantDriver, c.wantMode)
		}
	}
}

func TestNetworkFitsRequiresNameKindParent(t *testing.T) {
	existing := Network{Name: "n", Kind: NetworkBridge, ParentAdapter: "eth0", Subnets: []string{"10.0.0.0/24"}, Gateways: []string{"10.0.0.1"}, Options: map[string]string{"a": "1", "b": "2"}}

	if !NetworkFits(existing, NetworkConfig{Name: "n", Kind: NetworkBridge, ParentAdapter: "eth0"}) {
		t.Fatal("expected minimal matching config to fit")
	}
	if NetworkFits(existing, NetworkConfig{Name: "other", Kind: NetworkBridge, ParentAdapter: "eth0"}) {
		t.Fatal("name mismatch should not fit")
	}
	if NetworkFits(existing, NetworkConfig{Name: "n", Kind: NetworkMACVLAN, ParentAdapter: "eth0"}) {
		t.Fatal("kind mismatch should not fit")
	}
	if !NetworkFits(existing, NetworkConfig{Name: "n", Kind: NetworkBridge, ParentAdapter: "eth0", Subnet: "10.0.0.0/24", Gateway: "10.0.0.1", Options: map[string]string{"a": "1"}}) {
		t.Fatal("subset of matching subnet/gateway/options should fit")
	}
	if NetworkFits(existing, NetworkConfig{Name: "n", Kind: NetworkBridge, ParentAdapter: "eth0", Subnet: "192.168.0.0/24"}) {
		t.Fatal("unmatched requested subnet should not fit")
	}
	if NetworkFits(existing, NetworkConfig{Name: "n", Kind: NetworkBridge, ParentAdapter: "eth0", Options: map[string]string{"c": "3"}}) {
		t.Fatal("missing requested option should not fit")
	}
}
