package notify

import (
	"context"
	"encoding/json"
	"testing"
)

func TestLogNotifier_NeverFails(t *testing.T) {
	n := &LogNotifier{}
	if err := n.TransferReceived(context.Background(), TransferEvent{
		TransferID: "t-1", ReceiverName: "Bob", Amount: "150.75", Currency: "USD",
	}); err != nil {
		t.Errorf("TransferReceived: %v", err)
	}
}

func TestTransferEvent_JSON(t *testing.T) {
	ev := TransferEvent{
		TransferID:   "t-1",
		SenderName:   "Alice",
		ReceiverName: "Bob",
		Amount:       "150.75",
		Currency:     "USD",
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["transfer_id"] != "t-1" || got["amount"] != "150.75" {
		t.Errorf("unexpected payload: %s", data)
	}
	if _, ok := got["receiver_mail"]; ok {
		t.Error("empty receiver_mail should be omitted")
	}
}
