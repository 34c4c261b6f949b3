package pointcloud

import (
	"bytes"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestPCDRoundTripAscii(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(1000, 2000, 3000), NewBasicData()), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(-500, 0, 500), NewBasicData()), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDAscii), test.ShouldBeNil)

	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Size(), test.ShouldEqual, pc.Size())
	test.That(t, CloudContains(got, 1000, 2000, 3000), test.ShouldBeTrue)
	test.That(t, CloudContains(got, -500, 0, 500), test.ShouldBeTrue)
}

func TestPCDRoundTripBinaryWithColor(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(100, 200, 300), NewColoredData(color.NRGBA{R: 10, G: 20, B: 30, A: 255})), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDBinary), test.ShouldBeNil)

	got, err := ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Size(), test.ShouldEqual, 1)

	d, found := got.At(100, 200, 300)
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, d.HasColor(), test.ShouldBeTrue)
	r, g, b := d.RGB255()
	test.That(t, r, test.ShouldEqual, uint8(10))
	test.That(t, g, test.ShouldEqual, uint8(20))
	test.That(t, b, test.ShouldEqual, uint8(30))
}

func TestPCDCompressedUnsupported(t *testing.T) {
	pc := New()
	var buf bytes.Buffer
	err := ToPCD(pc, &buf, PCDCompressed)
	test.That(t, err, test.ShouldNotBeNil)
}
