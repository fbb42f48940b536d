package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ecotone-audio/ecotone/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a bounded in-memory queue", t, func() {
		ctx := context.Background()

		Convey("When enqueuing within capacity", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))

			Convey("Then enqueues succeed and the length tracks them", func() {
				So(q.Enqueue(ctx, queue.Job{Year: 2016}), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Job{Year: 2017}), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When the queue is full", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))
			So(q.Enqueue(ctx, queue.Job{Year: 2016}), ShouldBeTrue)

			Convey("Then the next enqueue is refused without blocking", func() {
				So(q.Enqueue(ctx, queue.Job{Year: 2017}), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the queue is closed", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			So(q.Enqueue(ctx, queue.Job{Year: 2016}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then new enqueues are refused", func() {
				So(q.Enqueue(ctx, queue.Job{Year: 2017}), ShouldBeFalse)
			})

			Convey("And queued jobs remain consumable until drained", func() {
				var years []int
				for j := range q.Dequeue(ctx) {
					years = append(years, j.Year)
				}
				So(years, ShouldResemble, []int{2016})
			})

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})
		})

		Convey("When the consumer context is canceled", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))
			cctx, cancel := context.WithCancel(ctx)
			jobs := q.Dequeue(cctx)
			cancel()
			So(q.Enqueue(ctx, queue.Job{Year: 2016}), ShouldBeTrue)

			Convey("Then the dequeue channel closes", func() {
				select {
				case _, ok := <-jobs:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					So("timed out waiting for the dequeue channel to close", ShouldBeEmpty)
				}
			})
		})
	})
}
