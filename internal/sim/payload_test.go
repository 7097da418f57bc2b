package sim

import "testing"

func TestParsePayloadPlainText(t *testing.T) {
	segs := ParsePayload("그냥 일반 문장입니다.")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Kind != Spoken || segs[0].Text != "그냥 일반 문장입니다." {
		t.Fatalf("unexpected segment: %+v", segs[0])
	}
}

func TestParsePayloadMarkers(t *testing.T) {
	segs := ParsePayload("[MESSAGE]안녕하세요[CONTENT]옵션 A, 옵션 B, 옵션 C[MESSAGE]계속할까요?")
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0].Kind != Spoken || segs[0].Text != "안녕하세요" {
		t.Fatalf("unexpected first segment: %+v", segs[0])
	}
	if segs[1].Kind != Interactive {
		t.Fatalf("second segment should be interactive: %+v", segs[1])
	}
	if len(segs[1].Options) != 3 || segs[1].Options[0] != "옵션 A" || segs[1].Options[2] != "옵션 C" {
		t.Fatalf("unexpected options: %+v", segs[1].Options)
	}
	if segs[2].Kind != Spoken || segs[2].Text != "계속할까요?" {
		t.Fatalf("unexpected last segment: %+v", segs[2])
	}
}

func TestParsePayloadEmptyOptionsDropped(t *testing.T) {
	segs := ParsePayload("[CONTENT]하나, , 둘,")
	if len(segs) != 1 || segs[0].Kind != Interactive {
		t.Fatalf("unexpected segments: %+v", segs)
	}
	if len(segs[0].Options) != 2 || segs[0].Options[0] != "하나" || segs[0].Options[1] != "둘" {
		t.Fatalf("blank options should be dropped: %+v", segs[0].Options)
	}
}

func TestParsePayloadTextBeforeFirstMarker(t *testing.T) {
	// A prefix before the first marker is not captured by any segment; the
	// marker segments still come out in order.
	segs := ParsePayload("서론 [MESSAGE]본론")
	if len(segs) != 1 || segs[0].Text != "본론" {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}
