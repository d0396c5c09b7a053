package main

import (
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyOnce_ReleasesAfterFirstSignal(t *testing.T) {
	// witness가 구독을 유지해 두 번째 신호로 테스트 프로세스가 종료되지 않음
	witness := make(chan os.Signal, 2)
	osSignal.Notify(witness, syscall.SIGUSR1)
	defer osSignal.Stop(witness)

	ch := notifyOnce(syscall.SIGUSR1)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case sig := <-ch:
		assert.Equal(t, syscall.SIGUSR1, sig)
	case <-time.After(2 * time.Second):
		t.Fatal("첫 신호가 전달되지 않음")
	}
	<-witness

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	select {
	case <-witness:
	case <-time.After(2 * time.Second):
		t.Fatal("두 번째 신호가 도착하지 않음")
	}

	select {
	case sig := <-ch:
		t.Fatalf("구독 해제 후 신호 전달됨: %v", sig)
	case <-time.After(100 * time.Millisecond):
	}
}
