package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/agentops/cache"
)

func ExampleMemoryCache() {
	c := cache.NewMemoryCache(cache.MemoryConfig{MaxEntries: 100})
	ctx := context.Background()

	_ = c.Set(ctx, "llm:openai:abc", []byte("NPS is 42"), time.Hour)
	value, ok := c.Get(ctx, "llm:openai:abc")
	fmt.Println(string(value), ok)
	// Output:
	// NPS is 42 true
}

func ExampleMiddleware_Execute() {
	mw, _ := cache.NewMiddleware(cache.NewMemoryCache(cache.MemoryConfig{}))
	ctx := context.Background()
	request := map[string]any{"model": "gpt-4o", "prompt": "summarize detractors"}

	generate := func(context.Context) ([]byte, bool, error) {
		fmt.Println("calling provider")
		return []byte("price complaints dominate"), true, nil
	}

	for range 2 {
		v, hit, _ := mw.Execute(ctx, "openai", request, generate)
		fmt.Printf("%s (hit=%v)\n", v, hit)
	}
	// Output:
	// calling provider
	// price complaints dominate (hit=false)
	// price complaints dominate (hit=true)
}
