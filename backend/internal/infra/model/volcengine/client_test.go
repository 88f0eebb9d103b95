package volcengine

import (
	"sync"
	"testing"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
)

func TestEnsureSDKBuildsSingleInstance(t *testing.T) {
	client := NewClient("test-key")

	const workers = 8
	sdks := make([]*arkruntime.Client, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client.ensureSDK()
			sdks[i] = client.sdk
		}(i)
	}
	wg.Wait()

	if sdks[0] == nil {
		t.Fatalf("sdk not initialised")
	}
	for i := 1; i < workers; i++ {
		if sdks[i] != sdks[0] {
			t.Fatalf("worker %d saw a different sdk instance", i)
		}
	}
}
