package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"agendify/config"
	paymentRepo "agendify/database/repository/paymentrec"
	"agendify/models"
	"agendify/services/checkout"
	"agendify/services/payment"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const TypePaymentReconcile = "payment:reconcile"

// reconcileDelay gives the in-process poller plenty of time to win; the
// worker only matters when the server died mid-poll.
const reconcileDelay = 10 * time.Minute

// AsynqReconciler enqueues deferred settlement re-checks.
type AsynqReconciler struct {
	client *asynq.Client
}

// NewAsynqReconciler builds the enqueue side of the reconcile queue.
func NewAsynqReconciler() *AsynqReconciler {
	return &AsynqReconciler{
		client: asynq.NewClient(queueRedisOpts()),
	}
}

// EnqueueReconcile schedules a re-check of one PIX charge.
func (r *AsynqReconciler) EnqueueReconcile(ctx context.Context, payload checkout.ReconcilePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypePaymentReconcile, data)
	_, err = r.client.EnqueueContext(ctx, task, asynq.ProcessIn(reconcileDelay), asynq.MaxRetry(3))
	return err
}

// Close releases the underlying queue connection.
func (r *AsynqReconciler) Close() error {
	return r.client.Close()
}

// InitReconcileWorker runs the async worker in background. It asks the
// gateway whether deferred charges settled and records any that did but were
// missed by the in-process poller.
func InitReconcileWorker(gateway payment.Gateway, payments paymentRepo.PaymentRepository) {
	srv := asynq.NewServer(
		queueRedisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypePaymentReconcile, handleReconcileTask(gateway, payments))

	go monitorRedisConnection()

	go func() {
		log.Println("[ReconcileWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReconcileWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReconcileWorker] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleReconcileTask(gateway payment.Gateway, payments paymentRepo.PaymentRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p checkout.ReconcilePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReconcileHandler] invalid payload: %v", err)
			return err
		}

		recorded, err := payments.ExistsByChargeID(ctx, p.ChargeID)
		if err != nil {
			return err
		}
		if recorded {
			return nil
		}

		settled, err := gateway.ChargeSettled(ctx, p.ChargeID)
		if err != nil {
			log.Printf("[ReconcileHandler] settlement check failed for %s: %v", p.ChargeID, err)
			return err
		}
		if !settled {
			return nil
		}

		log.Printf("[ReconcileHandler] charge %s settled after the poller was gone, recording it", p.ChargeID)
		record := models.PaymentRecord{
			BuyerName: p.BuyerName,
			Amount:    p.Amount,
			Method:    models.MethodPix,
			ChargeID:  p.ChargeID,
		}
		_, err = payments.Create(ctx, record)
		return err
	}
}

func queueRedisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[ReconcileWorker] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
