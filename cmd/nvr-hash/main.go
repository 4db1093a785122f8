package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
)

// nvr-hash prints the bcrypt hashes nvr-server.yaml expects for
// system.password and system.api_key, and can mint a cookie key.
func main() {
	// CLI flags
	secret := pflag.StringP("secret", "s", "", "value to hash; read from stdin when empty")
	cost := pflag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	cookieKey := pflag.Bool("cookie-key", false, "print a random system.cookie_key instead")
	pflag.Parse()

	log := buildLogger()
	log = log.Named("main")

	if *cookieKey {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatal("random read failed", zap.Error(err))
		}
		fmt.Println(hex.EncodeToString(b))
		return
	}

	if *cost < bcrypt.MinCost || *cost > bcrypt.MaxCost {
		fmt.Printf("Usage: ./nvr-hash [--cost=%d..%d] [--secret=<value>]\n", bcrypt.MinCost, bcrypt.MaxCost)
		os.Exit(1)
	}

	value := *secret
	if value == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatal("read secret from stdin failed", zap.Error(err))
		}
		value = strings.TrimRight(line, "\r\n")
	}
	if value == "" {
		log.Fatal("empty secret")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(value), *cost)
	if err != nil {
		log.Fatal("hash failed", zap.Error(err))
	}
	fmt.Println(string(hash))
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.InfoLevel)
	return zap.Must(logConfig.Build())
}
