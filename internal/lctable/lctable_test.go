package lctable

import "testing"

func sampleImage() *Image {
	return &Image{
		Watchpoints: []WatchpointSpec{
			{DataType: "U16BE", Operator: ">", MessageID: 100, Offset: 12, BitMask: 0xFFFFFFFF,
				ComparisonValue: 100, ResultAgeWhenStale: 5},
		},
		Actionpoints: []ActionpointSpec{
			{DefaultState: "ACTIVE", MaxFailsBeforeRTS: 3, RTSId: 7, EventType: "ERROR",
				RPNEquation: []string{"wp:0", "end"}},
		},
	}
}

func TestValidate_Good(t *testing.T) {
	img := sampleImage()
	if err := Validate(img); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
}

func TestValidate_UnknownDataType(t *testing.T) {
	img := sampleImage()
	img.Watchpoints[0].DataType = "U24"
	if err := Validate(img); err == nil {
		t.Fatalf("expected error for unknown data_type")
	}
}

func TestValidate_MisalignedOffset(t *testing.T) {
	img := sampleImage()
	img.Watchpoints[0].Offset = 13
	if err := Validate(img); err == nil {
		t.Fatalf("expected alignment error")
	}
}

func TestValidate_MalformedRPN(t *testing.T) {
	img := sampleImage()
	img.Actionpoints[0].RPNEquation = []string{"and", "end"}
	if err := Validate(img); err == nil {
		t.Fatalf("expected RPN malformed error")
	}
}

func TestNormalize_BuildsMessageIndex(t *testing.T) {
	img := sampleImage()
	if err := Validate(img); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	tables, err := Normalize(img, nil)
	if err != nil {
		t.Fatalf("Normalize err=%v", err)
	}
	if len(tables.MessageIndex[100]) != 1 || tables.MessageIndex[100][0] != 0 {
		t.Fatalf("expected MessageIndex[100]=[0], got %v", tables.MessageIndex[100])
	}
	if len(tables.ActionpointDefs[0].RPNEquation) != 2 {
		t.Fatalf("expected compiled equation of length 2")
	}
}

func TestNormalize_UnknownCustomPredicateRejected(t *testing.T) {
	img := sampleImage()
	img.Watchpoints[0].Operator = "custom"
	img.Watchpoints[0].CustomPredicate = "not_registered"
	if err := Validate(img); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	if _, err := Normalize(img, CustomPredicates{}); err == nil {
		t.Fatalf("expected error for unregistered custom predicate")
	}
}
