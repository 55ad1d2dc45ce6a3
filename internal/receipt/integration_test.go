package receipt_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/spendy/internal/metrics"
	"github.com/zombor/spendy/internal/receipt"
	"github.com/zombor/spendy/internal/scanning"
)

// A truncated, fenced model reply with prose and a trailing comma
const messyReply = "Here is the receipt:\n```json\n" + `{
  "receipt_metadata": {"store_name": "Willys", "date": "2025-03-02", "time": "18:05:00", "currency": "SEK"},
  "items": [
    {"name": "Havregryn", "total_price": 21.90, "category": "Groceries", "subcategory": "Cereal"},
    {"name": "Diskmedel", "total_price": "34,90 kr", "category": "Household"},
  ],
  "financial": {"total": 56.80}`

var _ = Describe("Integration", func() {
	var (
		upstream *ghttp.Server
		api      *ghttp.Server
		apiKey   string
	)

	post := func(body string) (*http.Response, map[string]any) {
		resp, err := http.Post(api.URL()+"/api/analyze", "application/json", bytes.NewBufferString(body))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		var decoded map[string]any
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
		return resp, decoded
	}

	replyWith := func(text string) http.HandlerFunc {
		return ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/v1/messages"),
			ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"id":          "msg_integration",
				"type":        "message",
				"role":        "assistant",
				"content":     []map[string]string{{"type": "text", "text": text}},
				"stop_reason": "end_turn",
			}),
		)
	}

	BeforeEach(func() {
		upstream = ghttp.NewServer()
		apiKey = "integration-key"
	})

	JustBeforeEach(func() {
		model, err := scanning.NewAnthropic(apiKey, upstream.URL(), "")
		Expect(err).NotTo(HaveOccurred())

		service := receipt.NewService(scanning.NewScanner(model))
		server := receipt.NewServer(service, receipt.BasicAuth{}, metrics.New())

		api = ghttp.NewServer()
		api.AppendHandlers(server.ServeHTTP)
	})

	AfterEach(func() {
		api.Close()
		upstream.Close()
	})

	When("the model reply needs repair", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(replyWith(messyReply))
		})

		It("should return the normalized receipt", func() {
			resp, body := post(`{"imageData":"data:image/jpeg;base64,/9j/4AAQ"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(HaveKeyWithValue("store", "Willys"))
			Expect(body).To(HaveKeyWithValue("date", "2025-03-02"))
			Expect(body).To(HaveKeyWithValue("total", 56.8))
			Expect(body["items"]).To(HaveLen(2))
		})

		It("should attach a clean validation", func() {
			_, body := post(`{"imageData":"data:image/jpeg;base64,/9j/4AAQ"}`)
			validation := body["_validation"].(map[string]any)
			Expect(validation).To(HaveKeyWithValue("isValid", true))
			Expect(validation).To(HaveKeyWithValue("itemsSum", "56.80"))
			Expect(validation["warnings"]).To(BeEmpty())
		})
	})

	When("the model reply lists no items", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(replyWith(`{"receipt_metadata": {"store_name": "Coop"}, "items": []}`))
		})

		It("should still return 200 marked invalid", func() {
			resp, body := post(`{"imageData":"data:image/png;base64,iVBORw0K"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			validation := body["_validation"].(map[string]any)
			Expect(validation).To(HaveKeyWithValue("isValid", false))
		})
	})

	When("the model reply has no JSON at all", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(replyWith("I cannot read this receipt."))
		})

		It("should report the format was not recognized", func() {
			resp, body := post(`{"imageData":"data:image/png;base64,iVBORw0K"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(body).To(HaveKeyWithValue("error", "Receipt format not recognized"))
			Expect(body).To(HaveKeyWithValue("preview", "I cannot read this receipt."))
		})
	})

	When("the model API is overloaded", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(ghttp.RespondWith(529,
				`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
				http.Header{"Content-Type": []string{"application/json"}},
			))
		})

		It("should propagate the status and raw body", func() {
			resp, body := post(`{"imageData":"data:image/png;base64,iVBORw0K"}`)
			Expect(resp.StatusCode).To(Equal(529))
			Expect(body).To(HaveKeyWithValue("details", ContainSubstring("overloaded_error")))
		})
	})

	When("no API key is configured", func() {
		BeforeEach(func() {
			apiKey = ""
		})

		It("should fail without calling the model", func() {
			resp, body := post(`{"imageData":"data:image/png;base64,iVBORw0K"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(body).To(HaveKeyWithValue("error", "API key not configured"))
			Expect(upstream.ReceivedRequests()).To(BeEmpty())
		})
	})
})
