package visualization_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestVisualization(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Visualization Suite")
}
