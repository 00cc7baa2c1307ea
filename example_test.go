package apiclient_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jonwraymond/apiclient"
	"github.com/jonwraymond/apiclient/gateway"
	"github.com/jonwraymond/apiclient/transport"
)

type greeter struct {
	client *apiclient.Client
}

func (g *greeter) Hello(ctx context.Context) (string, error) {
	resp, err := g.client.Request(ctx, http.MethodGet, "/hello", gateway.Options{
		ResponseType: transport.ResponseText,
	}).Wait(ctx)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func Example() {
	backend := transport.Func(func(_ context.Context, req *transport.Request) (*transport.Response, error) {
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte("hello from " + req.URL)}, nil
	})

	reg := apiclient.NewRegistry()
	_ = reg.Register("greeter", func(c *apiclient.Client) (any, error) {
		return &greeter{client: c}, nil
	})

	client, err := apiclient.New(
		apiclient.WithBaseURL("https://api.example.com/"),
		apiclient.WithTransport(backend),
		apiclient.WithRegistry(reg),
		apiclient.WithoutAutoStart(),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer func() { _ = client.Dispose(context.Background()) }()

	g, _ := apiclient.ExtensionAs[*greeter](client, "greeter")
	msg, err := g.Hello(context.Background())
	fmt.Println(msg, err)
	fmt.Println(client.Extensions())
	// Output:
	// hello from https://api.example.com/hello <nil>
	// [greeter]
}

func ExampleClient_Extend() {
	client, _ := apiclient.New(
		apiclient.WithTransport(transport.Func(func(context.Context, *transport.Request) (*transport.Response, error) {
			return &transport.Response{StatusCode: http.StatusOK}, nil
		})),
		apiclient.WithRegistry(apiclient.NewRegistry()),
		apiclient.WithoutAutoStart(),
	)

	client.On(apiclient.EventDispose, func(...any) {
		fmt.Println("dispose seen, mounted:", client.Extensions())
	})

	_, err := client.Extend("store", func(c *apiclient.Client) (any, error) {
		return c.BaseURL() + "/store", nil
	})
	fmt.Println(err)

	store, _ := client.Extension("store")
	fmt.Println(store)

	_ = client.Dispose(context.Background())
	// Output:
	// <nil>
	// /_api/store
	// dispose seen, mounted: [store]
}
