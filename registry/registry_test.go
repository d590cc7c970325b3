// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry_test

import (
	"sync/atomic"
	"testing"
	"time"

	"code.hybscloud.com/taskpool/internal/log"
	"code.hybscloud.com/taskpool/registry"
	"code.hybscloud.com/taskpool/task"
	"github.com/stretchr/testify/require"
)

func TestStartAllPoolsRoutesSubmissionsAndShutsDownCleanly(t *testing.T) {
	logger := log.New("error", "text")
	registry.StartAllPools(logger)
	defer registry.ShutdownAllPools()

	var generalDone, ioDone, lowDone int64

	_, err := registry.AsyncWork(nil, func(*task.Context) { atomic.StoreInt64(&generalDone, 1) }, task.Normal)
	require.NoError(t, err)
	_, err = registry.AsyncIO(nil, func(*task.Context) { atomic.StoreInt64(&ioDone, 1) }, task.Normal)
	require.NoError(t, err)
	_, err = registry.AsyncLowPriority(nil, func(*task.Context) { atomic.StoreInt64(&lowDone, 1) }, task.Normal)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&generalDone) == 1 &&
			atomic.LoadInt64(&ioDone) == 1 &&
			atomic.LoadInt64(&lowDone) == 1
	}, 2*time.Second, time.Millisecond)
}

func TestStartAllPoolsTwiceWithoutShutdownPanics(t *testing.T) {
	logger := log.New("error", "text")
	registry.StartAllPools(logger)
	defer registry.ShutdownAllPools()

	require.Panics(t, func() {
		registry.StartAllPools(logger)
	})
}
