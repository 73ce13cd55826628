// internal/intake/verification/otp_channel.go
package verification

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	commonaws "loan-intake/internal/common/aws"
	"loan-intake/internal/common/database"
)

const (
	otpDigits   = 6
	maxAttempts = 5
)

// CodeStore is the key-value subset of the Redis client the channel uses.
type CodeStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Incr(ctx context.Context, key string, expiration time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

// OTPChannel issues random codes, keeps them in Redis for TTL and publishes
// them to an SNS topic consumed by the Aadhaar SMS gateway.
type OTPChannel struct {
	store     CodeStore
	publisher commonaws.Publisher
	topicARN  string
	ttl       time.Duration
	generate  func() (string, error)
}

func NewOTPChannel(store CodeStore, publisher commonaws.Publisher, topicARN string, ttl time.Duration) *OTPChannel {
	return &OTPChannel{
		store:     store,
		publisher: publisher,
		topicARN:  topicARN,
		ttl:       ttl,
		generate:  randomCode,
	}
}

func codeKey(sessionID string) string     { return "intake:otp:" + sessionID }
func attemptsKey(sessionID string) string { return "intake:otp-attempts:" + sessionID }

func (c *OTPChannel) SendOTP(ctx context.Context, sessionID, aadhaar string) error {
	code, err := c.generate()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if err := c.store.Set(ctx, codeKey(sessionID), code, c.ttl); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if err := c.store.Del(ctx, attemptsKey(sessionID)); err != nil {
		return fmt.Errorf("reset otp attempts: %w", err)
	}

	_, err = c.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.topicARN),
		Message:  aws.String(fmt.Sprintf("Your SanctionX verification code is %s. It expires in %d minutes.", code, int(c.ttl.Minutes()))),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"aadhaar": {
				DataType:    aws.String("String"),
				StringValue: aws.String(maskAadhaar(aadhaar)),
			},
			"sessionId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(sessionID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish otp: %w", err)
	}
	return nil
}

// VerifyOTP consumes the stored code on success. After maxAttempts wrong
// guesses every further attempt fails until a new code is sent.
func (c *OTPChannel) VerifyOTP(ctx context.Context, sessionID, code string) (bool, error) {
	attempts, err := c.store.Incr(ctx, attemptsKey(sessionID), c.ttl)
	if err != nil {
		return false, fmt.Errorf("count otp attempts: %w", err)
	}
	if attempts > maxAttempts {
		return false, nil
	}

	stored, err := c.store.Get(ctx, codeKey(sessionID))
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}

	if err := c.store.Del(ctx, codeKey(sessionID), attemptsKey(sessionID)); err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return true, nil
}

func randomCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func maskAadhaar(aadhaar string) string {
	if len(aadhaar) < 4 {
		return "XXXX"
	}
	return "XXXXXXXX" + aadhaar[len(aadhaar)-4:]
}
