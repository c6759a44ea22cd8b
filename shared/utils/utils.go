package utils

import (
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const idCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var (
	sortCodePattern      = regexp.MustCompile(`^\d{2}-\d{2}-\d{2}$`)
	accountNumberPattern = regexp.MustCompile(`^\d{8}$`)
)

// Generator produces identifiers, sort codes and account numbers from an
// injected random source. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a Generator with a deterministic source.
func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// NewGeneratorFromTime seeds the Generator from the wall clock.
func NewGeneratorFromTime() *Generator {
	return NewGenerator(time.Now().UnixNano())
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}

// GenerateID returns "{prefix}-{c}" where c is one alphanumeric character.
// Uniqueness is not guaranteed.
func (g *Generator) GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%c", prefix, idCharset[g.intn(len(idCharset))])
}

// SortCode returns "NN-NN-NN" with each pair independently drawn from [00,99].
func (g *Generator) SortCode() string {
	return fmt.Sprintf("%02d-%02d-%02d", g.intn(100), g.intn(100), g.intn(100))
}

// AccountNumber returns a zero padded 8 digit numeral.
func (g *Generator) AccountNumber() string {
	return fmt.Sprintf("%08d", g.intn(100000000))
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func ValidateSortCode(sortCode string) bool {
	return sortCodePattern.MatchString(sortCode)
}

func ValidateAccountNumber(accountNumber string) bool {
	return accountNumberPattern.MatchString(accountNumber)
}
