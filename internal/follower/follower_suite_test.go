package follower

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestFollower(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Follower Suite")
}
