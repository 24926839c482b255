package faults_test

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/agentops/faults"
)

func ExampleAgentExecution() {
	cause := errors.New("upstream returned 503")
	err := faults.AgentExecution("B4", "sentiment pass failed", faults.WithCause(cause))

	fmt.Println(err.Category())
	fmt.Println(err.Component())
	fmt.Println(errors.Is(err, cause))
	// Output:
	// agent_failure
	// agent_B4
	// true
}

func ExampleClassify() {
	ec := faults.Classify(errors.New("something odd"))
	fmt.Println(ec.Category, ec.Severity, ec.MaxRetries)
	// Output:
	// unknown_error medium 3
}
