package slackchannel

import (
	"fmt"
	"hash/crc32"

	"github.com/alexandre-normand/eurekabot"
	"github.com/sourcegraph/conc"
)

// partitionRouter runs turns on a fixed set of workers. Turns are routed by the hash of their conversation id so
// that turns of the same conversation are processed in order while different conversations proceed concurrently
type partitionRouter struct {
	log eurekabot.SLogger

	// one queue per partition, each drained by its own worker
	queues []chan func()

	hashMask uint32
	workers  conc.WaitGroup
}

func newPartitionRouter(partitionCount int, queueSize int, log eurekabot.SLogger) (pr *partitionRouter, err error) {
	if !isPowerOfTwo(partitionCount) {
		return nil, fmt.Errorf("a partition router can only work with a partition count that is a power of two but was [%d]", partitionCount)
	}

	pr = new(partitionRouter)
	pr.log = log
	pr.hashMask = uint32(partitionCount - 1)
	pr.queues = make([]chan func(), partitionCount)
	for i := range pr.queues {
		queue := make(chan func(), queueSize)
		pr.queues[i] = queue

		pr.workers.Go(func() {
			for turn := range queue {
				turn()
			}
		})
	}

	return pr, nil
}

// route queues the turn on the partition of the conversation. It blocks when that partition's queue is full
func (pr *partitionRouter) route(conversationID string, turn func()) {
	partition := pr.partitionFor(conversationID)
	pr.log.Debugf("Dispatching turn for [%s] to partition [%d]\n", conversationID, partition)

	pr.queues[partition] <- turn
}

// partitionFor returns the partition index of a conversation
func (pr *partitionRouter) partitionFor(conversationID string) (partition int) {
	// Keep only the rightmost bits so we have a max equal to the partition count
	return int(crc32.ChecksumIEEE([]byte(conversationID)) & pr.hashMask)
}

// stop lets the workers finish the queued turns and waits for them
func (pr *partitionRouter) stop() {
	for _, queue := range pr.queues {
		close(queue)
	}

	pr.workers.Wait()
}

// isPowerOfTwo returns true if val is a power of two or false if not
func isPowerOfTwo(val int) bool {
	return (val > 0) && (val&(val-1)) == 0
}
