package h4

import "testing"

func collect(out chan []byte) [][]byte {
	var frames [][]byte
	for {
		select {
		case f := <-out:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestAssembler(t *testing.T) {
	tests := []struct {
		name   string
		chunks [][]byte
		want   [][]byte
	}{
		{
			name:   "event_in_one_chunk",
			chunks: [][]byte{{eventPacket, 0x0e, 0x03, 0x01, 0x03, 0x0c}},
			want:   [][]byte{{eventPacket, 0x0e, 0x03, 0x01, 0x03, 0x0c}},
		},
		{
			name: "event_split_mid_header",
			chunks: [][]byte{
				{eventPacket, 0x0e},
				{0x03, 0x01},
				{0x03, 0x0c},
			},
			want: [][]byte{{eventPacket, 0x0e, 0x03, 0x01, 0x03, 0x0c}},
		},
		{
			name: "garbage_before_start",
			chunks: [][]byte{
				{0x00, 0xff, eventPacket, 0x13, 0x01, 0xaa},
			},
			want: [][]byte{{eventPacket, 0x13, 0x01, 0xaa}},
		},
		{
			name: "two_frames_one_chunk",
			chunks: [][]byte{
				{eventPacket, 0x13, 0x01, 0xaa, eventPacket, 0x13, 0x01, 0xbb},
			},
			want: [][]byte{
				{eventPacket, 0x13, 0x01, 0xaa},
				{eventPacket, 0x13, 0x01, 0xbb},
			},
		},
		{
			name: "acl_with_16bit_length",
			chunks: [][]byte{
				{aclPacket, 0x40, 0x00, 0x02, 0x00},
				{0xde, 0xad},
			},
			want: [][]byte{{aclPacket, 0x40, 0x00, 0x02, 0x00, 0xde, 0xad}},
		},
		{
			name:   "only_garbage",
			chunks: [][]byte{{0x00, 0xff, 0x03}},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make(chan []byte, 8)
			asm := newAssembler(out)
			for _, c := range tt.chunks {
				asm.Push(c)
			}

			got := collect(out)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d frames, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("frame %d = % x, want % x", i, got[i], tt.want[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Fatalf("frame %d = % x, want % x", i, got[i], tt.want[i])
					}
				}
			}
		})
	}
}
